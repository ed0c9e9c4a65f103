package vault

import (
	"net/http"
	"strings"

	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
)

// DefaultIdentityTokenPath is the location where Kubernetes mounts the pod's
// service account token.
const DefaultIdentityTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

// BasicSecretStoreOptions are options to create a BasicSecretStore.
type BasicSecretStoreOptions struct {
	// Endpoint is the base URL of the Vault server.
	Endpoint *string
	// Role is the Kubernetes auth role to log in as. It is required unless a
	// Token is given.
	Role *string
	// Token is a Vault token to use instead of logging in.
	Token *string
	// SessionCookie is an authenticating proxy (Pomerium) session cookie to
	// send with requests to the store.
	SessionCookie *string
	// IdentityTokenPath is the file containing the workload identity token
	// exchanged at login. Defaults to DefaultIdentityTokenPath.
	IdentityTokenPath *string
	// InsecureSkipVerify disables TLS certificate verification. It cannot be
	// combined with an HTTPClient whose Transport is a RoundTripper other than
	// *http.Transport.
	InsecureSkipVerify *bool
	// HTTPClient is the HTTP client to use to make requests. Redirects are
	// never followed regardless of the client's redirect policy.
	HTTPClient *http.Client
}

// NewBasicSecretStoreOptions returns new uninitialized options to create a
// BasicSecretStore.
func NewBasicSecretStoreOptions() *BasicSecretStoreOptions {
	return &BasicSecretStoreOptions{}
}

// SetEndpoint sets the base URL of the Vault server.
func (o *BasicSecretStoreOptions) SetEndpoint(endpoint string) *BasicSecretStoreOptions {
	o.Endpoint = &endpoint
	return o
}

// SetRole sets the Kubernetes auth role.
func (o *BasicSecretStoreOptions) SetRole(role string) *BasicSecretStoreOptions {
	o.Role = &role
	return o
}

// SetToken sets a Vault token to use instead of logging in.
func (o *BasicSecretStoreOptions) SetToken(token string) *BasicSecretStoreOptions {
	o.Token = &token
	return o
}

// SetSessionCookie sets the authenticating proxy session cookie.
func (o *BasicSecretStoreOptions) SetSessionCookie(cookie string) *BasicSecretStoreOptions {
	o.SessionCookie = &cookie
	return o
}

// SetIdentityTokenPath sets the file containing the workload identity token.
func (o *BasicSecretStoreOptions) SetIdentityTokenPath(path string) *BasicSecretStoreOptions {
	o.IdentityTokenPath = &path
	return o
}

// SetInsecureSkipVerify sets whether TLS certificate verification is skipped.
func (o *BasicSecretStoreOptions) SetInsecureSkipVerify(skip bool) *BasicSecretStoreOptions {
	o.InsecureSkipVerify = &skip
	return o
}

// SetHTTPClient sets the HTTP client to use.
func (o *BasicSecretStoreOptions) SetHTTPClient(hc *http.Client) *BasicSecretStoreOptions {
	o.HTTPClient = hc
	return o
}

// Validate checks that the required options are given and sets defaults for
// unspecified options.
func (o *BasicSecretStoreOptions) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(utility.FromStringPtr(o.Endpoint) == "", "must specify an endpoint")
	catcher.NewWhen(utility.FromStringPtr(o.Token) == "" && utility.FromStringPtr(o.Role) == "", "must specify a role to log in with when no token is given")
	if utility.FromBoolPtr(o.InsecureSkipVerify) && o.HTTPClient != nil && o.HTTPClient.Transport != nil {
		_, ok := o.HTTPClient.Transport.(*http.Transport)
		catcher.NewWhen(!ok, "cannot skip TLS verification with a custom HTTP transport that is not an *http.Transport")
	}
	if catcher.HasErrors() {
		return catcher.Resolve()
	}

	o.Endpoint = utility.ToStringPtr(strings.TrimSuffix(*o.Endpoint, "/"))
	if utility.FromStringPtr(o.IdentityTokenPath) == "" {
		o.IdentityTokenPath = utility.ToStringPtr(DefaultIdentityTokenPath)
	}

	return nil
}

// MergeBasicSecretStoreOptions merges all the given options. Options are
// applied in the order that they're specified and conflicting options are
// overwritten.
func MergeBasicSecretStoreOptions(opts ...*BasicSecretStoreOptions) BasicSecretStoreOptions {
	merged := BasicSecretStoreOptions{}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if opt.Endpoint != nil {
			merged.Endpoint = opt.Endpoint
		}
		if opt.Role != nil {
			merged.Role = opt.Role
		}
		if opt.Token != nil {
			merged.Token = opt.Token
		}
		if opt.SessionCookie != nil {
			merged.SessionCookie = opt.SessionCookie
		}
		if opt.IdentityTokenPath != nil {
			merged.IdentityTokenPath = opt.IdentityTokenPath
		}
		if opt.InsecureSkipVerify != nil {
			merged.InsecureSkipVerify = opt.InsecureSkipVerify
		}
		if opt.HTTPClient != nil {
			merged.HTTPClient = opt.HTTPClient
		}
	}

	return merged
}
