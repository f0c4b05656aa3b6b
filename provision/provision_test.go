package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummyProvider struct {
	ProviderBase
}

func (dummyProvider) NewProvisioner(Options) (Provisioner, error) {
	return nil, nil
}

func TestRegister(t *testing.T) {
	Register("dummy", dummyProvider{})
	p := Providers()
	require.Contains(t, p, "dummy")

	assert.Panics(t, func() {
		Register("dummy", dummyProvider{})
	})
}

func TestProvidersReturnsClone(t *testing.T) {
	p := Providers()
	p["injected"] = dummyProvider{}
	assert.NotContains(t, Providers(), "injected")
}

func TestIntegrityError(t *testing.T) {
	var err error = IntegrityError{
		Substituter: "https://cache.example.com",
		PublicKey:   "cache.example.com-1:deadbeef",
		Detail:      "signature did not verify",
	}
	e, ok := IsIntegrityError(err)
	require.True(t, ok)
	assert.Equal(t, "https://cache.example.com", e.Substituter)
	assert.Contains(t, err.Error(), "cache.example.com")

	_, ok = IsIntegrityError(ErrFeatureNotSupported)
	assert.False(t, ok)
}
