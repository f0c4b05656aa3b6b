package nixprovisioner

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/minci/minci-worker/provision"
	"github.com/minci/minci-worker/runtime/mocks"
	"github.com/minci/minci-worker/trust"
)

func newTestBuilder(t *testing.T, impure bool) *environmentBuilder {
	p, err := provider{}.NewProvisioner(provision.Options{
		Monitor: mocks.NewMockMonitor(true),
		Config:  map[string]interface{}{},
	})
	require.NoError(t, err)

	descriptor := map[string]interface{}{
		"environment": ".#default",
		"impure":      impure,
	}
	require.NoError(t, p.DescriptorSchema().Validate(descriptor))

	b, err := p.NewEnvironmentBuilder(provision.BuilderOptions{
		Monitor:    mocks.NewMockMonitor(true),
		Descriptor: descriptor,
		WorkDir:    t.TempDir(),
		LogDrain:   os.Stderr,
	})
	require.NoError(t, err)
	return b.(*environmentBuilder)
}

func TestDescriptorSchemaRequiresEnvironment(t *testing.T) {
	err := descriptorSchema.Validate(map[string]interface{}{"impure": true})
	require.Error(t, err)
	_, ok := err.(*schematypes.ValidationError)
	assert.True(t, ok)
}

func TestProvisionArgs(t *testing.T) {
	b := newTestBuilder(t, false)
	assert.Equal(t, []string{"build", "--no-link", ".#default"}, b.provisionArgs())

	b = newTestBuilder(t, true)
	assert.Equal(t, []string{"build", "--no-link", ".#default", "--impure"}, b.provisionArgs())
}

func TestRunArgs(t *testing.T) {
	b := newTestBuilder(t, true)
	assert.Equal(t, []string{
		"develop", ".#default", "--impure", "--command", "sh", "-c", "make check",
	}, b.runArgs("make check"))
}

func TestRenderSettings(t *testing.T) {
	b := newTestBuilder(t, false)
	require.NoError(t, b.SetTrustConfig(trust.Config{
		Substituters: []string{"https://cache.example.com"},
		PublicKeys:   []string{"cache.example.com-1:abcdef"},
	}))
	require.NoError(t, b.SetAccessToken("s3cret-token"))

	settings := b.renderSettings()
	assert.Contains(t, settings, "experimental-features = nix-command flakes\n")
	assert.Contains(t, settings, "substituters = https://cache.example.com\n")
	assert.Contains(t, settings, "trusted-public-keys = cache.example.com-1:abcdef\n")
	assert.Contains(t, settings, "access-tokens = github.com=s3cret-token\n")
}

func TestSettingsFilePermissions(t *testing.T) {
	b := newTestBuilder(t, false)
	require.NoError(t, b.SetAccessToken("s3cret-token"))
	require.NoError(t, b.writeSettings())

	info, err := os.Stat(b.settingsFilePath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDiscardRemovesSettings(t *testing.T) {
	b := newTestBuilder(t, false)
	require.NoError(t, b.SetAccessToken("s3cret-token"))
	require.NoError(t, b.writeSettings())

	require.NoError(t, b.Discard())
	_, err := os.Stat(b.settingsFilePath())
	assert.True(t, os.IsNotExist(err), "settings file must be removed on discard")
	assert.Empty(t, b.accessToken, "token must not outlive the builder")
}

func TestProvisionAfterDiscard(t *testing.T) {
	b := newTestBuilder(t, false)
	require.NoError(t, b.Discard())

	_, err := b.Provision()
	assert.Equal(t, provision.ErrBuilderDiscarded, err)
}

func TestSetVariableConflict(t *testing.T) {
	b := newTestBuilder(t, false)
	require.NoError(t, b.SetVariable("CI", "true"))
	assert.Equal(t, provision.ErrNamingConflict, b.SetVariable("CI", "false"))
}
