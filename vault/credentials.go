package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/GlueOps/glueops"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const kubernetesLoginPath = "/v1/auth/kubernetes/login"

// credentials resolves the token used to access the store and caches it for
// the lifetime of the store. A failed login caches nothing, so the next call
// tries again.
type credentials struct {
	endpoint  string
	role      string
	tokenPath string
	client    *http.Client

	mu    sync.Mutex
	token string
}

type loginRequest struct {
	JWT  string `json:"jwt"`
	Role string `json:"role"`
}

type loginResponse struct {
	Auth struct {
		ClientToken string `json:"client_token"`
	} `json:"auth"`
}

// resolve returns the cached token, logging in first if there isn't one.
func (c *credentials) resolve(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	token, err := c.login(ctx)
	if err != nil {
		return "", glueops.NewAuthenticationError(c.endpoint, err)
	}
	c.token = token

	return c.token, nil
}

// login exchanges the workload identity token for a Vault token.
func (c *credentials) login(ctx context.Context) (string, error) {
	jwt, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return "", errors.Wrapf(err, "reading identity token from '%s'", c.tokenPath)
	}

	body, err := json.Marshal(loginRequest{
		JWT:  strings.TrimSpace(string(jwt)),
		Role: c.role,
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+kubernetesLoginPath, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "creating login request")
	}
	req.Header.Set("Content-Type", "application/json")

	grip.Debug(message.Fields{
		"message":  "logging in to Vault with Kubernetes identity",
		"endpoint": c.endpoint,
		"role":     c.role,
	})

	resp, err := c.client.Do(req)
	if err != nil {
		return "", glueops.NewNetworkError("logging in", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", glueops.NewNetworkError("reading login response", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", glueops.NewAPIError(resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out loginResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", glueops.NewMalformedResponseError("decoding login response", err)
	}
	if out.Auth.ClientToken == "" {
		return "", glueops.NewMalformedResponseError("login response is missing auth.client_token", nil)
	}

	return out.Auth.ClientToken, nil
}
