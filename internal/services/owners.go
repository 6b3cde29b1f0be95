package services

import (
	"sync"

	"github.com/google/uuid"
)

type ownerKey struct {
	session uuid.UUID
	profile uuid.UUID
}

// connectionOwners remembers which connection last connected as each
// profile. Callers hold the session lock, so a check and the change it
// guards happen together.
type connectionOwners struct {
	mu     sync.Mutex
	owners map[ownerKey]uuid.UUID
}

func newConnectionOwners() *connectionOwners {
	return &connectionOwners{owners: make(map[ownerKey]uuid.UUID)}
}

func (o *connectionOwners) set(sessionID, displayID, connID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owners[ownerKey{sessionID, displayID}] = connID
}

func (o *connectionOwners) owns(sessionID, displayID, connID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owners[ownerKey{sessionID, displayID}] == connID
}

func (o *connectionOwners) drop(sessionID, displayID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.owners, ownerKey{sessionID, displayID})
}

func (o *connectionOwners) dropSession(sessionID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k := range o.owners {
		if k.session == sessionID {
			delete(o.owners, k)
		}
	}
}
