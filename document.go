package glueops

import (
	"context"
	"iter"
)

// DocumentClient provides a common interface to interact with a hierarchical
// document store. Implementations do not retry failed requests.
type DocumentClient interface {
	// UpdateContent replaces the markdown body of an existing document.
	UpdateContent(ctx context.Context, id, markdown string) error
	// GetID looks up a document and returns the ID the store reports for it.
	// It returns an empty ID without an error if the store omits it.
	GetID(ctx context.Context, id string) (string, error)
	// ChildIDs lazily enumerates the IDs of the documents directly under the
	// parent document. Each iteration walks the pages again from the start.
	ChildIDs(ctx context.Context, parentID string) iter.Seq2[string, error]
	// Delete deletes a document. A nil error means the document was deleted.
	Delete(ctx context.Context, id string) error
	// Create publishes a new document under the parent document and returns
	// the new document's ID, if the store reports one.
	Create(ctx context.Context, parentID, title, text string) (string, error)
}
