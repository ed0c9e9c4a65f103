package outline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/GlueOps/glueops"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// BasicDocumentClient provides a glueops.DocumentClient implementation backed
// by the Outline API. It does not retry failed requests.
type BasicDocumentClient struct {
	baseURL  string
	token    string
	pageSize int
	client   *http.Client

	pooledClient *http.Client
}

// NewBasicDocumentClient creates a new document client from the given options.
// It does not make any requests.
func NewBasicDocumentClient(opts ...*BasicDocumentClientOptions) (*BasicDocumentClient, error) {
	merged := MergeBasicDocumentClientOptions(opts...)
	if err := merged.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	c := &BasicDocumentClient{
		baseURL:  *merged.BaseURL,
		token:    *merged.Token,
		pageSize: *merged.PageSize,
		client:   merged.HTTPClient,
	}
	if c.client == nil {
		c.pooledClient = utility.GetHTTPClient()
		c.client = c.pooledClient
	}

	return c, nil
}

type documentRef struct {
	ID string `json:"id"`
}

type infoResponse struct {
	Data *documentRef `json:"data"`
}

type listRequest struct {
	ParentDocumentID string `json:"parentDocumentId"`
	Limit            int    `json:"limit"`
	Offset           int    `json:"offset"`
}

type listResponse struct {
	Data       []documentRef `json:"data"`
	Pagination *struct {
		NextPath string `json:"nextPath"`
	} `json:"pagination"`
}

type createRequest struct {
	ParentDocumentID string `json:"parentDocumentId"`
	Title            string `json:"title"`
	Text             string `json:"text"`
	Publish          bool   `json:"publish"`
}

// UpdateContent replaces the markdown text of the document.
func (c *BasicDocumentClient) UpdateContent(ctx context.Context, id, markdown string) error {
	if err := c.post(ctx, "documents.update", map[string]string{"id": id, "text": markdown}, nil); err != nil {
		grip.Error(message.WrapError(err, message.Fields{
			"message":  "could not update document",
			"document": id,
		}))
		return errors.Wrapf(err, "updating document '%s'", id)
	}

	grip.Info(message.Fields{
		"message":  "updated document",
		"document": id,
	})

	return nil
}

// GetID returns the ID that the API reports for the document. This resolves a
// URL slug to the document's UUID. If the response omits the ID, it returns an
// empty string.
func (c *BasicDocumentClient) GetID(ctx context.Context, id string) (string, error) {
	var out infoResponse
	if err := c.post(ctx, "documents.info", map[string]string{"id": id}, &out); err != nil {
		grip.Error(message.WrapError(err, message.Fields{
			"message":  "could not get document info",
			"document": id,
		}))
		return "", errors.Wrapf(err, "getting info for document '%s'", id)
	}

	if out.Data == nil {
		return "", nil
	}

	grip.Debug(message.Fields{
		"message":     "got document info",
		"document":    id,
		"document_id": out.Data.ID,
	})

	return out.Data.ID, nil
}

// ChildIDs lazily enumerates the IDs of the documents directly under the
// parent, requesting one page at a time. The sequence stops after the first
// page that is empty or has no next page path, or after the first error.
func (c *BasicDocumentClient) ChildIDs(ctx context.Context, parentID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		in := listRequest{
			ParentDocumentID: parentID,
			Limit:            c.pageSize,
		}
		for {
			var out listResponse
			if err := c.post(ctx, "documents.list", in, &out); err != nil {
				grip.Error(message.WrapError(err, message.Fields{
					"message": "could not list child documents",
					"parent":  parentID,
					"offset":  in.Offset,
				}))
				yield("", errors.Wrapf(err, "listing children of document '%s' at offset %d", parentID, in.Offset))
				return
			}

			var numIDs int
			for _, doc := range out.Data {
				if doc.ID == "" {
					continue
				}
				numIDs++
				if !yield(doc.ID, nil) {
					return
				}
			}

			if numIDs == 0 || out.Pagination == nil || out.Pagination.NextPath == "" {
				return
			}

			in.Offset += in.Limit
		}
	}
}

// ListChildIDs returns the IDs of all the documents directly under the parent.
func (c *BasicDocumentClient) ListChildIDs(ctx context.Context, parentID string) ([]string, error) {
	ids, err := CollectChildIDs(ctx, c, parentID)
	if err != nil {
		return nil, err
	}

	grip.Debug(message.Fields{
		"message":  "listed child documents",
		"parent":   parentID,
		"children": ids,
	})

	return ids, nil
}

// Delete deletes the document. A nil error means that it was deleted.
func (c *BasicDocumentClient) Delete(ctx context.Context, id string) error {
	if err := c.post(ctx, "documents.delete", map[string]string{"id": id}, nil); err != nil {
		grip.Error(message.WrapError(err, message.Fields{
			"message":  "could not delete document",
			"document": id,
		}))
		return errors.Wrapf(err, "deleting document '%s'", id)
	}

	grip.Debug(message.Fields{
		"message":  "deleted document",
		"document": id,
	})

	return nil
}

// Create publishes a new document under the parent and returns its ID. The ID
// is empty if the response does not include one or cannot be read.
func (c *BasicDocumentClient) Create(ctx context.Context, parentID, title, text string) (string, error) {
	in := createRequest{
		ParentDocumentID: parentID,
		Title:            title,
		Text:             text,
		Publish:          true,
	}
	respBody, err := c.send(ctx, "documents.create", in)
	if err != nil {
		grip.Error(message.WrapError(err, message.Fields{
			"message": "could not create document",
			"parent":  parentID,
			"title":   title,
		}))
		return "", errors.Wrapf(err, "creating document '%s'", title)
	}

	// The document exists once the API accepts it, so an unreadable body only
	// loses the ID.
	var id string
	var out infoResponse
	if err := decodeResponse("documents.create", respBody, &out); err != nil {
		grip.Debug(message.WrapError(err, message.Fields{
			"message": "created document but could not read its ID",
			"parent":  parentID,
			"title":   title,
		}))
	} else if out.Data != nil {
		id = out.Data.ID
	}

	grip.Info(message.Fields{
		"message":  "created document",
		"parent":   parentID,
		"title":    title,
		"document": id,
	})

	return id, nil
}

// post sends a JSON request to the API method. If out is not nil, the response
// body is decoded into it.
func (c *BasicDocumentClient) post(ctx context.Context, method string, in, out interface{}) error {
	respBody, err := c.send(ctx, method, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeResponse(method, respBody, out)
}

// decodeResponse decodes a successful response body. An empty body leaves out
// unchanged.
func decodeResponse(method string, respBody []byte, out interface{}) error {
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return glueops.NewMalformedResponseError("decoding response to "+method, err)
	}
	return nil
}

// send sends a JSON request to the API method and returns the body of a 2xx
// response.
func (c *BasicDocumentClient) send(ctx context.Context, method string, in interface{}) ([]byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrap(err, "encoding request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/%s", c.baseURL, method), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, glueops.NewAPIErrorFromCause(glueops.NewNetworkError(method, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, glueops.NewAPIErrorFromCause(glueops.NewNetworkError("reading response to "+method, err))
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, glueops.NewAPIError(resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}

// Close cleans up all resources owned by the client.
func (c *BasicDocumentClient) Close(ctx context.Context) error {
	if c.pooledClient != nil {
		utility.PutHTTPClient(c.pooledClient)
		c.pooledClient = nil
	}
	return nil
}
