package outline

import (
	"net/http"
	"strings"

	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
)

// DefaultPageSize is the number of documents requested per page when
// enumerating child documents.
const DefaultPageSize = 1

// BasicDocumentClientOptions are options to create a BasicDocumentClient.
type BasicDocumentClientOptions struct {
	// BaseURL is the base URL of the Outline instance.
	BaseURL *string
	// Token is the API token sent as a bearer token.
	Token *string
	// PageSize is the number of child documents requested per page. Defaults
	// to DefaultPageSize.
	PageSize *int
	// HTTPClient is the HTTP client to use to make requests.
	HTTPClient *http.Client
}

// NewBasicDocumentClientOptions returns new uninitialized options to create a
// BasicDocumentClient.
func NewBasicDocumentClientOptions() *BasicDocumentClientOptions {
	return &BasicDocumentClientOptions{}
}

// SetBaseURL sets the base URL of the Outline instance.
func (o *BasicDocumentClientOptions) SetBaseURL(url string) *BasicDocumentClientOptions {
	o.BaseURL = &url
	return o
}

// SetToken sets the API token.
func (o *BasicDocumentClientOptions) SetToken(token string) *BasicDocumentClientOptions {
	o.Token = &token
	return o
}

// SetPageSize sets the number of child documents requested per page.
func (o *BasicDocumentClientOptions) SetPageSize(size int) *BasicDocumentClientOptions {
	o.PageSize = &size
	return o
}

// SetHTTPClient sets the HTTP client to use.
func (o *BasicDocumentClientOptions) SetHTTPClient(hc *http.Client) *BasicDocumentClientOptions {
	o.HTTPClient = hc
	return o
}

// Validate checks that the required options are given and sets defaults for
// unspecified options.
func (o *BasicDocumentClientOptions) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(utility.FromStringPtr(o.BaseURL) == "", "must specify a base URL")
	catcher.NewWhen(utility.FromStringPtr(o.Token) == "", "must specify an API token")
	catcher.NewWhen(o.PageSize != nil && *o.PageSize <= 0, "page size must be positive")
	if catcher.HasErrors() {
		return catcher.Resolve()
	}

	o.BaseURL = utility.ToStringPtr(strings.TrimRight(*o.BaseURL, "/"))
	if o.PageSize == nil {
		o.PageSize = utility.ToIntPtr(DefaultPageSize)
	}

	return nil
}

// MergeBasicDocumentClientOptions merges all the given options. Options are
// applied in the order that they're specified and conflicting options are
// overwritten.
func MergeBasicDocumentClientOptions(opts ...*BasicDocumentClientOptions) BasicDocumentClientOptions {
	merged := BasicDocumentClientOptions{}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if opt.BaseURL != nil {
			merged.BaseURL = opt.BaseURL
		}
		if opt.Token != nil {
			merged.Token = opt.Token
		}
		if opt.PageSize != nil {
			merged.PageSize = opt.PageSize
		}
		if opt.HTTPClient != nil {
			merged.HTTPClient = opt.HTTPClient
		}
	}

	return merged
}
