package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePairing(t *testing.T) {
	c := Config{
		Substituters: []string{"https://cache.example.com"},
		PublicKeys:   []string{"cache.example.com-1:3ZW7DYrPN90cKJHQ4M2xrMzRp6DNGKDzhpqVYh0NQWM="},
	}
	assert.NoError(t, c.Validate())

	c.PublicKeys = nil
	assert.Error(t, c.Validate(), "unpaired substituter must be rejected")

	c.PublicKeys = []string{""}
	assert.Error(t, c.Validate(), "empty public key must be rejected")
}

func TestValidateEmpty(t *testing.T) {
	c := Config{}
	assert.NoError(t, c.Validate())
	assert.True(t, c.IsEmpty())
}

func TestPairsArePositional(t *testing.T) {
	c := Config{
		Substituters: []string{"https://a.example.com", "https://b.example.com"},
		PublicKeys:   []string{"a-key", "b-key"},
	}
	require.NoError(t, c.Validate())

	pairs := c.Pairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, Pair{"https://a.example.com", "a-key"}, pairs[0])
	assert.Equal(t, Pair{"https://b.example.com", "b-key"}, pairs[1])
}

func TestRender(t *testing.T) {
	c := Config{
		Substituters: []string{"https://a.example.com", "https://b.example.com"},
		PublicKeys:   []string{"a-key", "b-key"},
	}
	expected := "substituters = https://a.example.com https://b.example.com\n" +
		"trusted-public-keys = a-key b-key\n"
	assert.Equal(t, expected, c.Render())

	// rendering twice yields the same result, nothing accumulates
	assert.Equal(t, expected, c.Render())

	assert.Equal(t, "", Config{}.Render())
}
