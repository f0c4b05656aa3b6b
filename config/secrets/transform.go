// Package configsecrets implements a TransformationProvider that replaces
// objects on the form: {$secret: "NAME"} with the contents of the file NAME
// from the host's secret store directory.
//
// The directory is taken from the 'secretsDir' property of the configuration
// object, which exists solely for this transform and is filtered out before
// validation. Secret files typically are mounted by the host's secret
// manager, e.g. a systemd credentials directory.
package configsecrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/minci/minci-worker/config"
	"github.com/minci/minci-worker/runtime"
)

type provider struct{}

func init() {
	config.Register("secrets", provider{})
}

func (provider) Transform(cfg map[string]interface{}, monitor runtime.Monitor) error {
	secretsDir, ok := cfg["secretsDir"].(string)
	if !ok || secretsDir == "" {
		return errors.New("expected 'secretsDir' property to hold the secret store directory")
	}

	return config.ReplaceObjects(cfg, "secret", func(val map[string]interface{}) (interface{}, error) {
		name := val["$secret"].(string)
		if name == "" || name != filepath.Base(name) {
			return nil, errors.Errorf("illegal secret name: '%s'", name)
		}
		data, err := os.ReadFile(filepath.Join(secretsDir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read secret '%s'", name)
		}
		// Secret files commonly have a trailing newline, that's never part
		// of the secret.
		return strings.TrimRight(string(data), "\r\n"), nil
	})
}
