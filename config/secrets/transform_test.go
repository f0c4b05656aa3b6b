package configsecrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minci/minci-worker/config/configtest"
)

func TestSecretsTransform(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "access-token"), []byte("s3cret\n"), 0600)
	require.NoError(t, err)

	configtest.Case{
		Transform: "secrets",
		Input: map[string]interface{}{
			"secretsDir": dir,
			"credentials": map[string]interface{}{
				"accessToken": map[string]interface{}{"$secret": "access-token"},
			},
		},
		Result: map[string]interface{}{
			"secretsDir": dir,
			"credentials": map[string]interface{}{
				"accessToken": "s3cret",
			},
		},
	}.Test(t)
}

func TestSecretsTransformRejectsPathNames(t *testing.T) {
	p := provider{}
	err := p.Transform(map[string]interface{}{
		"secretsDir": t.TempDir(),
		"key":        map[string]interface{}{"$secret": "../etc/passwd"},
	}, nil)
	require.Error(t, err)
}

func TestSecretsTransformRequiresDir(t *testing.T) {
	p := provider{}
	err := p.Transform(map[string]interface{}{
		"key": map[string]interface{}{"$secret": "name"},
	}, nil)
	require.Error(t, err)
}
