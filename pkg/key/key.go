// Package key generates and validates the short codes participants type to
// join a meeting, e.g. "HC94F2".
package key

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

const (
	// Length of every key.
	Length = 6

	letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "01234567"
)

var ErrInvalidKey = errors.New("invalid key")

// Key is a validated meeting code. The zero value is not a valid key.
type Key string

func (k Key) String() string { return string(k) }

// Generator produces keys from a shuffled alphabet. Keys are not guaranteed
// to be unique; callers persist them behind a unique index and retry.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a Generator seeded from the runtime's random source.
func NewGenerator() *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewGeneratorWithSource is used by tests that need reproducible keys.
func NewGeneratorWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Generate returns a key of Length characters containing at least one digit
// and at least one letter. Candidates are checked with Parse.
func (g *Generator) Generate() Key {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		candidate := g.candidate()
		if k, err := Parse(string(candidate)); err == nil {
			return k
		}
	}
}

func (g *Generator) candidate() Key {
	alphabet := []byte(letters + digits)
	g.rnd.Shuffle(len(alphabet), func(i, j int) {
		alphabet[i], alphabet[j] = alphabet[j], alphabet[i]
	})

	buf := make([]byte, 0, Length)
	hasDigit := false
	for i := 0; i < Length; i++ {
		if i == Length-1 && !hasDigit {
			buf = append(buf, digits[g.rnd.IntN(len(digits))])
			break
		}
		c := alphabet[g.rnd.IntN(len(alphabet))]
		if isDigit(rune(c)) {
			hasDigit = true
		}
		buf = append(buf, c)
	}
	return Key(buf)
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

// Generate uses a process-wide Generator.
func Generate() Key {
	defaultOnce.Do(func() { defaultGen = NewGenerator() })
	return defaultGen.Generate()
}

// Parse validates value: exactly Length characters, at least one digit, at
// least one uppercase letter, and nothing outside A-Z0-9.
func Parse(value string) (Key, error) {
	if len(value) != Length {
		return "", fmt.Errorf("%w: %q must be %d characters, e.g. \"HC94F2\"", ErrInvalidKey, value, Length)
	}

	var hasDigit, hasUpper bool
	for _, r := range value {
		switch {
		case isDigit(r):
			hasDigit = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		default:
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidKey, value, r)
		}
	}
	if !hasDigit || !hasUpper {
		return "", fmt.Errorf("%w: %q needs at least one digit and one uppercase letter", ErrInvalidKey, value)
	}
	return Key(value), nil
}

// IsValid reports whether value would be accepted by Parse.
func IsValid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
