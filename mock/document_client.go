package mock

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"sync"

	"github.com/GlueOps/glueops"
)

// Document is a document stored in a mock DocumentClient.
type Document struct {
	ID       string
	ParentID string
	Title    string
	Text     string
}

// DocumentClient provides a mock implementation of a glueops.DocumentClient
// that stores documents in memory. This makes it possible to introspect on
// inputs to the client and control the client's output.
type DocumentClient struct {
	mu     sync.Mutex
	docs   []Document
	nextID int

	UpdateContentInput *Document
	UpdateContentError error

	GetIDInput  *string
	GetIDOutput *string
	GetIDError  error

	ChildIDsInput  *string
	ChildIDsOutput []string
	ChildIDsError  error

	DeleteInputs []string
	DeleteError  error

	CreateInput  *Document
	CreateOutput *string
	CreateError  error
}

// AddDocument stores a document and returns its generated ID.
func (c *DocumentClient) AddDocument(parentID, title, text string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addDocument(parentID, title, text)
}

func (c *DocumentClient) addDocument(parentID, title, text string) string {
	c.nextID++
	id := fmt.Sprintf("mock-doc-%d", c.nextID)
	c.docs = append(c.docs, Document{ID: id, ParentID: parentID, Title: title, Text: text})
	return id
}

// Document returns the stored document with the ID.
func (c *DocumentClient) Document(id string) (Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(id)
	if i < 0 {
		return Document{}, false
	}
	return c.docs[i], true
}

func (c *DocumentClient) find(id string) int {
	for i, doc := range c.docs {
		if doc.ID == id {
			return i
		}
	}
	return -1
}

func notFound(id string) error {
	return glueops.NewAPIError(http.StatusNotFound, fmt.Sprintf("document '%s' not found", id))
}

// UpdateContent saves the input and updates the stored document's text. The
// mock output can be customized.
func (c *DocumentClient) UpdateContent(ctx context.Context, id, markdown string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.UpdateContentInput = &Document{ID: id, Text: markdown}

	if c.UpdateContentError != nil {
		return c.UpdateContentError
	}

	i := c.find(id)
	if i < 0 {
		return notFound(id)
	}
	c.docs[i].Text = markdown

	return nil
}

// GetID saves the input and returns the stored document's ID. The mock output
// can be customized.
func (c *DocumentClient) GetID(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.GetIDInput = &id

	if c.GetIDOutput != nil || c.GetIDError != nil {
		if c.GetIDError != nil {
			return "", c.GetIDError
		}
		return *c.GetIDOutput, nil
	}

	if c.find(id) < 0 {
		return "", notFound(id)
	}

	return id, nil
}

// ChildIDs saves the input and enumerates the IDs of the stored documents
// under the parent in the order they were created. The mock output can be
// customized: if ChildIDsError is set, it is yielded after ChildIDsOutput.
func (c *DocumentClient) ChildIDs(ctx context.Context, parentID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		c.mu.Lock()
		c.ChildIDsInput = &parentID
		ids := c.ChildIDsOutput
		childErr := c.ChildIDsError
		if ids == nil && childErr == nil {
			for _, doc := range c.docs {
				if doc.ParentID == parentID {
					ids = append(ids, doc.ID)
				}
			}
		}
		c.mu.Unlock()

		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
		if childErr != nil {
			yield("", childErr)
		}
	}
}

// Delete saves the input and removes the stored document. The mock output can
// be customized.
func (c *DocumentClient) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.DeleteInputs = append(c.DeleteInputs, id)

	if c.DeleteError != nil {
		return c.DeleteError
	}

	i := c.find(id)
	if i < 0 {
		return notFound(id)
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)

	return nil
}

// Create saves the input and stores a new document. The mock output can be
// customized.
func (c *DocumentClient) Create(ctx context.Context, parentID, title, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CreateInput = &Document{ParentID: parentID, Title: title, Text: text}

	if c.CreateOutput != nil || c.CreateError != nil {
		if c.CreateError != nil {
			return "", c.CreateError
		}
		return *c.CreateOutput, nil
	}

	return c.addDocument(parentID, title, text), nil
}
