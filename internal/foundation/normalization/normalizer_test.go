package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

const (
	red color = iota + 1
	blue
)

func TestParse(t *testing.T) {
	n := New("color", map[string]color{"red": red, "Crimson": red, "blue": blue, "": blue})

	for raw, want := range map[string]color{"red": red, " CRIMSON ": red, "Blue": blue, "": blue, "  ": blue} {
		got, err := n.Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := n.Parse("green")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid color "green"`)
	assert.Contains(t, err.Error(), "[blue crimson red]")
}

func TestKeysIsACopy(t *testing.T) {
	n := New("color", map[string]color{"red": red})
	keys := n.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"red"}, n.Keys())
}
