// Package trust holds the trust configuration for the environment
// provisioner: an ordered set of substituter URLs paired positionally with
// the public keys that signed their content.
//
// The configuration must be rendered into the provisioner's settings before
// any package resolution happens; provisioners reject fetched content whose
// signature doesn't match the paired key.
package trust

import (
	"fmt"
	"strings"

	schematypes "github.com/taskcluster/go-schematypes"
)

// A Pair is one trusted substituter and the public key its content must be
// signed with.
type Pair struct {
	Substituter string
	PublicKey   string
}

// Config is the trust configuration as given in the worker configuration.
// Substituters and PublicKeys are paired positionally and must have equal
// length. Duplicates are tolerated, they are merely redundant.
type Config struct {
	Substituters []string `json:"substituters"`
	PublicKeys   []string `json:"trustedPublicKeys"`
}

// ConfigSchema is the schema for Config, for embedding in the worker
// configuration schema.
var ConfigSchema = schematypes.Object{
	Title:       "Trust Configuration",
	Description: "Substituters prebuilt packages may be fetched from, paired positionally with their public keys.",
	Properties: schematypes.Properties{
		"substituters": schematypes.Array{
			Items: schematypes.String{},
		},
		"trustedPublicKeys": schematypes.Array{
			Items: schematypes.String{},
		},
	},
}

// Validate returns an error if substituters and keys cannot be paired.
func (c Config) Validate() error {
	if len(c.Substituters) != len(c.PublicKeys) {
		return fmt.Errorf(
			"trust configuration has %d substituters but %d public keys, the lists must be paired positionally",
			len(c.Substituters), len(c.PublicKeys),
		)
	}
	for i, s := range c.Substituters {
		if s == "" {
			return fmt.Errorf("trust configuration has an empty substituter at position %d", i)
		}
		if c.PublicKeys[i] == "" {
			return fmt.Errorf("trust configuration has an empty public key at position %d", i)
		}
	}
	return nil
}

// IsEmpty returns true if no pairs are configured.
func (c Config) IsEmpty() bool {
	return len(c.Substituters) == 0 && len(c.PublicKeys) == 0
}

// Pairs returns the positional (substituter, key) pairs. Callers must have
// validated the config first.
func (c Config) Pairs() []Pair {
	pairs := make([]Pair, len(c.Substituters))
	for i, s := range c.Substituters {
		pairs[i] = Pair{Substituter: s, PublicKey: c.PublicKeys[i]}
	}
	return pairs
}

// Render returns the settings stanza registering the trusted substituters
// and keys with the provisioner. Rendering an empty config yields an empty
// string. Rendering is idempotent, repeating it across jobs accumulates no
// state.
func (c Config) Render() string {
	if c.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("substituters = ")
	b.WriteString(strings.Join(c.Substituters, " "))
	b.WriteString("\n")
	b.WriteString("trusted-public-keys = ")
	b.WriteString(strings.Join(c.PublicKeys, " "))
	b.WriteString("\n")
	return b.String()
}
