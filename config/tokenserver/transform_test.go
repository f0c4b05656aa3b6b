package configtokenserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minci/minci-worker/config/configtest"
	"github.com/minci/minci-worker/runtime/mocks"
)

func TestTokenServerTransform(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token": "opaque-token"}`))
	}))
	defer s.Close()

	configtest.Case{
		Transform: "tokenserver",
		Input: map[string]interface{}{
			"credentials": map[string]interface{}{
				"accessToken": map[string]interface{}{"$tokenserver": s.URL},
			},
		},
		Result: map[string]interface{}{
			"credentials": map[string]interface{}{
				"accessToken": "opaque-token",
			},
		},
	}.Test(t)
}

func TestTokenServerEmptyToken(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer s.Close()

	err := provider{}.Transform(map[string]interface{}{
		"accessToken": map[string]interface{}{"$tokenserver": s.URL},
	}, mocks.NewMockMonitor(false))
	require.Error(t, err)
}

func TestTokenServerUnreachable(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	s.Close()

	err := provider{}.Transform(map[string]interface{}{
		"accessToken": map[string]interface{}{"$tokenserver": s.URL},
	}, mocks.NewMockMonitor(false))
	require.Error(t, err)
}
