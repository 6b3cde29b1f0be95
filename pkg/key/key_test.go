package key

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	gen := NewGeneratorWithSource(rand.NewPCG(1, 2))

	for i := 0; i < 5000; i++ {
		k := gen.Generate()
		s := k.String()

		require.Len(t, s, Length)
		var digitCount int
		for _, r := range s {
			require.True(t, (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'), "unexpected char %q in %s", r, s)
			if r >= '0' && r <= '9' {
				digitCount++
			}
		}
		require.GreaterOrEqual(t, digitCount, 1, s)
	}
}

func TestGenerate_ProducesParsableKeys(t *testing.T) {
	gen := NewGeneratorWithSource(rand.NewPCG(42, 7))
	for i := 0; i < 1000; i++ {
		k := gen.Generate()
		_, err := Parse(k.String())
		require.NoError(t, err, k.String())
	}
}

func TestGenerate_PackageLevel(t *testing.T) {
	require.Len(t, Generate().String(), Length)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"letters and digits", "HC94F2", true},
		{"single digit", "ABCDE1", true},
		{"single letter", "12345A", true},
		{"too long with lowercase", "sadaf49pj", false},
		{"too short", "AB12", false},
		{"empty", "", false},
		{"lowercase", "hc94f2", false},
		{"mixed case", "Hc94F2", false},
		{"no digit", "ABCDEF", false},
		{"no letter", "123456", false},
		{"whitespace", "AB 12C", false},
		{"punctuation", "AB-12C", false},
		{"symbol", "AB£12C", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := Parse(tt.value)
			if tt.valid {
				require.NoError(t, err)
				require.Equal(t, Key(tt.value), k)
				require.True(t, IsValid(tt.value))
				return
			}
			require.ErrorIs(t, err, ErrInvalidKey)
			require.False(t, IsValid(tt.value))
		})
	}
}
