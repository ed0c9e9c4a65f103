package vault

import (
	"net/http"
	"testing"

	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicSecretStoreOptions(t *testing.T) {
	t.Run("NewBasicSecretStoreOptions", func(t *testing.T) {
		opts := NewBasicSecretStoreOptions()
		require.NotZero(t, opts)
		assert.Zero(t, *opts)
	})
	t.Run("SetEndpoint", func(t *testing.T) {
		opts := NewBasicSecretStoreOptions().SetEndpoint("https://vault.example.com")
		assert.Equal(t, "https://vault.example.com", utility.FromStringPtr(opts.Endpoint))
	})
	t.Run("SetSessionCookie", func(t *testing.T) {
		opts := NewBasicSecretStoreOptions().SetSessionCookie("cookie")
		assert.Equal(t, "cookie", utility.FromStringPtr(opts.SessionCookie))
	})
	t.Run("SetHTTPClient", func(t *testing.T) {
		opts := NewBasicSecretStoreOptions().SetHTTPClient(http.DefaultClient)
		assert.Equal(t, http.DefaultClient, opts.HTTPClient)
	})
	t.Run("Validate", func(t *testing.T) {
		t.Run("FailsWithEmpty", func(t *testing.T) {
			assert.Error(t, NewBasicSecretStoreOptions().Validate())
		})
		t.Run("FailsWithoutEndpoint", func(t *testing.T) {
			assert.Error(t, NewBasicSecretStoreOptions().SetRole("reader").Validate())
		})
		t.Run("FailsWithoutRoleOrToken", func(t *testing.T) {
			assert.Error(t, NewBasicSecretStoreOptions().SetEndpoint("https://vault.example.com").Validate())
		})
		t.Run("FailsWithEmptyTokenAndNoRole", func(t *testing.T) {
			opts := NewBasicSecretStoreOptions().
				SetEndpoint("https://vault.example.com").
				SetToken("")
			assert.Error(t, opts.Validate())
		})
		t.Run("SucceedsWithRole", func(t *testing.T) {
			opts := NewBasicSecretStoreOptions().
				SetEndpoint("https://vault.example.com/").
				SetRole("reader")
			require.NoError(t, opts.Validate())
			assert.Equal(t, "https://vault.example.com", utility.FromStringPtr(opts.Endpoint))
			assert.Equal(t, DefaultIdentityTokenPath, utility.FromStringPtr(opts.IdentityTokenPath))
		})
		t.Run("FailsWithInsecureAndWrappedTransport", func(t *testing.T) {
			opts := NewBasicSecretStoreOptions().
				SetEndpoint("https://vault.example.com").
				SetToken("token").
				SetInsecureSkipVerify(true).
				SetHTTPClient(&http.Client{Transport: wrappingTransport{next: http.DefaultTransport}})
			assert.Error(t, opts.Validate())

			_, err := NewBasicSecretStore(opts)
			assert.Error(t, err)
		})
		t.Run("SucceedsWithInsecureAndPlainTransport", func(t *testing.T) {
			opts := NewBasicSecretStoreOptions().
				SetEndpoint("https://vault.example.com").
				SetToken("token").
				SetInsecureSkipVerify(true).
				SetHTTPClient(&http.Client{Transport: &http.Transport{}})
			assert.NoError(t, opts.Validate())
		})
		t.Run("SucceedsWithWrappedTransportWhenVerifying", func(t *testing.T) {
			opts := NewBasicSecretStoreOptions().
				SetEndpoint("https://vault.example.com").
				SetToken("token").
				SetHTTPClient(&http.Client{Transport: wrappingTransport{next: http.DefaultTransport}})
			assert.NoError(t, opts.Validate())
		})
		t.Run("SucceedsWithTokenButNoRole", func(t *testing.T) {
			opts := NewBasicSecretStoreOptions().
				SetEndpoint("https://vault.example.com").
				SetToken("token")
			assert.NoError(t, opts.Validate())
		})
		t.Run("KeepsIdentityTokenPath", func(t *testing.T) {
			opts := NewBasicSecretStoreOptions().
				SetEndpoint("https://vault.example.com").
				SetRole("reader").
				SetIdentityTokenPath("/tmp/token")
			require.NoError(t, opts.Validate())
			assert.Equal(t, "/tmp/token", utility.FromStringPtr(opts.IdentityTokenPath))
		})
	})
	t.Run("MergeBasicSecretStoreOptions", func(t *testing.T) {
		merged := MergeBasicSecretStoreOptions(
			NewBasicSecretStoreOptions().SetEndpoint("https://a.example.com").SetRole("reader"),
			nil,
			NewBasicSecretStoreOptions().SetEndpoint("https://b.example.com"),
		)
		assert.Equal(t, "https://b.example.com", utility.FromStringPtr(merged.Endpoint))
		assert.Equal(t, "reader", utility.FromStringPtr(merged.Role))
	})
}

type wrappingTransport struct {
	next http.RoundTripper
}

func (t wrappingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(r)
}
