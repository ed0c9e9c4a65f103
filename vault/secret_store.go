package vault

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/GlueOps/glueops"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	tokenHeader       = "X-Vault-Token"
	sessionCookieName = "_pomerium"
)

// BasicSecretStore provides a glueops.SecretStore implementation backed by
// Vault's KV v2 secrets engine. It does not retry failed requests.
type BasicSecretStore struct {
	endpoint      string
	sessionCookie string
	client        *http.Client
	creds         *credentials

	pooledClient *http.Client
}

// NewBasicSecretStore creates a new secret store from the given options. It
// does not make any requests.
func NewBasicSecretStore(opts ...*BasicSecretStoreOptions) (*BasicSecretStore, error) {
	merged := MergeBasicSecretStoreOptions(opts...)
	if err := merged.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	s := &BasicSecretStore{
		endpoint:      *merged.Endpoint,
		sessionCookie: utility.FromStringPtr(merged.SessionCookie),
	}

	base := merged.HTTPClient
	if base == nil {
		s.pooledClient = utility.GetHTTPClient()
		base = s.pooledClient
	}
	s.client = noRedirectClient(base, utility.FromBoolPtr(merged.InsecureSkipVerify))

	s.creds = &credentials{
		endpoint:  s.endpoint,
		role:      utility.FromStringPtr(merged.Role),
		tokenPath: *merged.IdentityTokenPath,
		client:    s.client,
		token:     utility.FromStringPtr(merged.Token),
	}

	return s, nil
}

// noRedirectClient returns a copy of the HTTP client that returns redirect
// responses to the caller instead of following them.
func noRedirectClient(base *http.Client, insecure bool) *http.Client {
	hc := *base
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if insecure {
		tr, ok := hc.Transport.(*http.Transport)
		if !ok || tr == nil {
			tr = http.DefaultTransport.(*http.Transport)
		}
		tr = tr.Clone()
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{}
		}
		tr.TLSClientConfig.InsecureSkipVerify = true
		hc.Transport = tr
	}
	return &hc
}

// Read returns the key-value pairs stored at the secret path. Paths in the
// "secret/" mount are rewritten to their data path (see NormalizePath).
func (s *BasicSecretStore) Read(ctx context.Context, path string) (map[string]string, error) {
	path = NormalizePath(path)

	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "reading secret '%s'", path)
	}
	defer resp.Body.Close()

	envelope, err := checkResponse(resp, false)
	if err != nil {
		return nil, errors.Wrapf(err, "reading secret '%s'", path)
	}

	data, err := secretData(envelope)
	if err != nil {
		return nil, errors.Wrapf(err, "reading secret '%s'", path)
	}

	grip.Debug(message.Fields{
		"message":  "read secret from Vault",
		"path":     path,
		"num_keys": len(data),
	})

	return data, nil
}

// Write replaces the key-value pairs stored at the secret path. Paths in the
// "secret/" mount are rewritten to their data path (see NormalizePath).
func (s *BasicSecretStore) Write(ctx context.Context, path string, data map[string]string) error {
	path = NormalizePath(path)

	body, err := json.Marshal(map[string]interface{}{"data": data})
	if err != nil {
		return errors.Wrap(err, "encoding secret data")
	}

	resp, err := s.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return errors.Wrapf(err, "writing secret '%s'", path)
	}
	defer resp.Body.Close()

	if _, err := checkResponse(resp, true); err != nil {
		return errors.Wrapf(err, "writing secret '%s'", path)
	}

	grip.Debug(message.Fields{
		"message":  "wrote secret to Vault",
		"path":     path,
		"num_keys": len(data),
	})

	return nil
}

// do authenticates and sends a request for the store path.
func (s *BasicSecretStore) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := s.creds.resolve(ctx)
	if err != nil {
		return nil, err
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s/v1/%s", s.endpoint, path), r)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set(tokenHeader, token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.sessionCookie != "" {
		req.Header.Set("Cookie", fmt.Sprintf("%s=%s", sessionCookieName, s.sessionCookie))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, glueops.NewNetworkError(fmt.Sprintf("%s %s", method, path), err)
	}

	return resp, nil
}

// Close cleans up all resources owned by the store.
func (s *BasicSecretStore) Close(ctx context.Context) error {
	if s.pooledClient != nil {
		utility.PutHTTPClient(s.pooledClient)
		s.pooledClient = nil
	}
	return nil
}
