package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// VaultRequest records a request made to a VaultServer.
type VaultRequest struct {
	Method string
	Path   string
	Token  string
	Cookie string
}

// VaultServer is a fake Vault server that supports Kubernetes auth login and
// reading and writing KV v2 secrets. Its exported fields may be modified
// between requests to control its behavior.
type VaultServer struct {
	*httptest.Server

	// JWT and Role are the identity token and role that login accepts.
	JWT  string
	Role string
	// Token is the client token returned by login and required by all other
	// requests.
	Token string
	// RedirectTo, if set, makes every non-login response carry it as the
	// Location header with RedirectStatus (302 by default).
	RedirectTo     string
	RedirectStatus int
	// Body, if set, is returned verbatim with a 200 status for every non-login
	// request.
	Body string

	mu       sync.Mutex
	secrets  map[string]map[string]interface{}
	logins   int
	requests []VaultRequest
}

// NewVaultServer starts a new fake Vault server that is closed when the test
// finishes.
func NewVaultServer(t *testing.T) *VaultServer {
	s := &VaultServer{
		JWT:     "identity-token",
		Role:    "reader",
		Token:   "client-token",
		secrets: map[string]map[string]interface{}{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// PutSecret stores a secret at the data path (e.g. "secret/data/app").
func (s *VaultServer) PutSecret(path string, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[path] = data
}

// Secret returns the secret stored at the data path.
func (s *VaultServer) Secret(path string) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.secrets[path]
	return data, ok
}

// Logins returns the number of successful logins.
func (s *VaultServer) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Requests returns all the requests the server received, except logins.
func (s *VaultServer) Requests() []VaultRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VaultRequest(nil), s.requests...)
}

func (s *VaultServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.URL.Path == "/v1/auth/kubernetes/login" && r.Method == http.MethodPost {
		s.handleLogin(w, r)
		return
	}

	s.requests = append(s.requests, VaultRequest{
		Method: r.Method,
		Path:   strings.TrimPrefix(r.URL.Path, "/v1/"),
		Token:  r.Header.Get("X-Vault-Token"),
		Cookie: r.Header.Get("Cookie"),
	})

	if s.RedirectTo != "" {
		status := s.RedirectStatus
		if status == 0 {
			status = http.StatusFound
		}
		w.Header().Set("Location", s.RedirectTo)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":{"data":{"ignored":"value"}}}`))
		return
	}

	if r.Header.Get("X-Vault-Token") != s.Token {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"errors": []string{"permission denied"}})
		return
	}

	if s.Body != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(s.Body))
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/")
	switch r.Method {
	case http.MethodGet:
		data, ok := s.secrets[path]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"errors": []string{}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{
				"data":     data,
				"metadata": map[string]interface{}{"version": 1},
			},
		})
	case http.MethodPost, http.MethodPut:
		var in struct {
			Data map[string]interface{} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": []string{err.Error()}})
			return
		}
		s.secrets[path] = in.Data
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"version": 1},
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *VaultServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		JWT  string `json:"jwt"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": []string{err.Error()}})
		return
	}
	if in.JWT != s.JWT || in.Role != s.Role {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"errors": []string{"permission denied"}})
		return
	}

	s.logins++
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"auth": map[string]interface{}{"client_token": s.Token},
	})
}

// WriteIdentityToken writes the identity token to a file in a temporary
// directory and returns its path.
func WriteIdentityToken(t *testing.T, jwt string) string {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte(jwt+"\n"), 0600))
	return path
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
