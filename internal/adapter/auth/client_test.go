package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/logger"
	"github.com/formleszs/music-app/internal/ports"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeServer mimics the auth endpoint with one registered account.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "true", r.Header.Get("ngrok-skip-browser-warning"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var creds ports.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "bad body"})
			return
		}

		switch r.URL.Path {
		case "/login":
			switch {
			case creds.Phone != "79991234567":
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "User not found"})
			case creds.Password != "secret":
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect password"})
			default:
				writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-login", "token_type": "bearer"})
			}
		case "/register":
			if creds.Phone == "79991234567" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Phone already registered"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-new", "token_type": "bearer"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(logger.NewTestLogger(), baseURL, 2*time.Second)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, fakeServer(t).URL+"/")

	token, err := c.Login(context.Background(), ports.Credentials{Phone: "79991234567", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-login", token)
}

func TestClient_LoginRejections(t *testing.T) {
	c := newTestClient(t, fakeServer(t).URL)

	tests := []struct {
		name   string
		creds  ports.Credentials
		reason domain.AuthReason
		status int
	}{
		{"unknown user", ports.Credentials{Phone: "70000000000", Password: "x"}, domain.AuthReasonUserNotFound, http.StatusNotFound},
		{"wrong password", ports.Credentials{Phone: "79991234567", Password: "x"}, domain.AuthReasonWrongPassword, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Login(context.Background(), tt.creds)
			var authErr *domain.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.reason, authErr.Reason)
			assert.Equal(t, tt.status, authErr.Status)
			assert.Equal(t, "login", authErr.Op)
		})
	}
}

func TestClient_Register(t *testing.T) {
	c := newTestClient(t, fakeServer(t).URL)

	token, err := c.Register(context.Background(), ports.Credentials{Phone: "79990000000", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-new", token)

	_, err = c.Register(context.Background(), ports.Credentials{Phone: "79991234567", Password: "pw"})
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, domain.AuthReasonAlreadyRegistered, authErr.Reason)
}

func TestClient_NetworkErrors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newTestClient(t, url).Login(context.Background(), ports.Credentials{Phone: "1", Password: "2"})
		var netErr *domain.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, "login", netErr.Op)
	})

	t.Run("status without detail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Login(context.Background(), ports.Credentials{Phone: "1", Password: "2"})
		var netErr *domain.NetworkError
		assert.ErrorAs(t, err, &netErr)
	})

	t.Run("success without token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"token_type": "bearer"})
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Register(context.Background(), ports.Credentials{Phone: "1", Password: "2"})
		var netErr *domain.NetworkError
		assert.ErrorAs(t, err, &netErr)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestClient(t, fakeServer(t).URL).Login(ctx, ports.Credentials{Phone: "79991234567", Password: "secret"})
		var netErr *domain.NetworkError
		assert.ErrorAs(t, err, &netErr)
	})
}

func TestClassifyDetail(t *testing.T) {
	assert.Equal(t, domain.AuthReasonUserNotFound, ClassifyDetail("User not found"))
	assert.Equal(t, domain.AuthReasonWrongPassword, ClassifyDetail(" Incorrect password "))
	assert.Equal(t, domain.AuthReasonAlreadyRegistered, ClassifyDetail("User already registered"))
	assert.Equal(t, domain.AuthReasonOther, ClassifyDetail("Server on fire"))
	assert.Equal(t, domain.AuthReasonOther, ClassifyDetail(""))
}
