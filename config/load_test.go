package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minci/minci-worker/config"
	_ "github.com/minci/minci-worker/config/env"
	_ "github.com/minci/minci-worker/provision/mock"
	"github.com/minci/minci-worker/runtime/mocks"
)

const testConfigFile = `
transforms:
  - env
config:
  provisioner: mock
  provisioners:
    mock: {}
  temporaryFolder: /tmp/minci-test-tmp
  monitor:
    type: mock
    panicOnError: true
  server:
    address: "127.0.0.1:8080"
    secret:
      $env: CFG_TEST_WEBHOOK_SECRET
  job:
    descriptor:
      provision: succeed
    command: "true"
  trust:
    substituters:
      - https://cache.example.com
    trustedPublicKeys:
      - cache.example.com-1:abcdef
  worker:
    concurrency: 1
`

func TestLoad(t *testing.T) {
	os.Setenv("CFG_TEST_WEBHOOK_SECRET", "super-secret")

	result, err := config.Load([]byte(testConfigFile), mocks.NewMockMonitor(true))
	require.NoError(t, err)

	server := result["server"].(map[string]interface{})
	assert.Equal(t, "super-secret", server["secret"], "transform should have injected the secret")
	assert.Equal(t, "mock", result["provisioner"])
}

func TestLoadRejectsUnknownTransform(t *testing.T) {
	data := `
transforms:
  - no-such-transform
config:
  provisioner: mock
`
	_, err := config.Load([]byte(data), mocks.NewMockMonitor(false))
	require.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	data := `
config:
  provisioner: no-such-provisioner
`
	_, err := config.Load([]byte(data), mocks.NewMockMonitor(false))
	require.Error(t, err)
}

func TestLoadFiltersTransformOnlyKeys(t *testing.T) {
	data := testConfigFile + `  secretsDir: /nonexistent
`
	result, err := config.Load([]byte(data), mocks.NewMockMonitor(true))
	require.NoError(t, err)
	assert.NotContains(t, result, "secretsDir", "extra keys should be filtered out")
}
