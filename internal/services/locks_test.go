package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSessionLocks_Exclusive(t *testing.T) {
	locks := newSessionLocks()
	id := uuid.New()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(id)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, 100, counter)
	require.Zero(t, locks.size())
}

func TestSessionLocks_Independent(t *testing.T) {
	locks := newSessionLocks()

	unlockA := locks.lock(uuid.New())
	unlockB := locks.lock(uuid.New())
	require.Equal(t, 2, locks.size())

	unlockA()
	unlockB()
	require.Zero(t, locks.size())
}
