// Package configtokenserver implements a TransformationProvider that fetches
// an access token from a token service and replaces objects of the form:
// {$tokenserver: url} with the token.
//
// The URL should point to an endpoint returning a JSON object with a 'token'
// property, typically the host's secret store. Transport-level retries are
// handled by the HTTP client; if the service still cannot be reached the
// transform fails, and with it the worker's startup: a job must never run
// with a missing credential.
package configtokenserver

import (
	"encoding/json"

	"github.com/pkg/errors"
	got "github.com/taskcluster/go-got"

	"github.com/minci/minci-worker/config"
	"github.com/minci/minci-worker/runtime"
)

type provider struct{}

func init() {
	config.Register("tokenserver", provider{})
}

func (provider) Transform(cfg map[string]interface{}, monitor runtime.Monitor) error {
	g := got.New()

	return config.ReplaceObjects(cfg, "tokenserver", func(val map[string]interface{}) (interface{}, error) {
		url := val["$tokenserver"].(string)
		monitor.Info("requesting access token from ", url)

		resp, err := g.Get(url).Send()
		if err != nil {
			return nil, errors.Wrapf(err, "token server request failed: %s", url)
		}

		var reply struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(resp.Body, &reply); err != nil {
			return nil, errors.Wrapf(err, "token server returned invalid JSON: %s", url)
		}
		if reply.Token == "" {
			return nil, errors.Errorf("token server returned an empty token: %s", url)
		}
		return reply.Token, nil
	})
}
