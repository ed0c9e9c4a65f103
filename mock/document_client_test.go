package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/GlueOps/glueops/internal/testcase"
	"github.com/GlueOps/glueops/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for tName, tCase := range testcase.DocumentClientTests() {
		t.Run(tName, func(t *testing.T) {
			tctx, tcancel := context.WithTimeout(ctx, defaultTestTimeout)
			defer tcancel()

			c := &DocumentClient{}
			tCase(tctx, t, c, c.AddDocument("", "parent", ""))
		})
	}

	t.Run("ChildIDsYieldsErrorAfterOutput", func(t *testing.T) {
		c := &DocumentClient{
			ChildIDsOutput: []string{"a"},
			ChildIDsError:  errors.New("fake error"),
		}

		ids, err := outline.CollectChildIDs(ctx, c, "parent")
		assert.EqualError(t, err, "fake error")
		assert.Zero(t, ids)
		assert.Equal(t, "parent", *c.ChildIDsInput)
	})
	t.Run("DeleteChildrenRemovesChildren", func(t *testing.T) {
		c := &DocumentClient{}
		parentID := c.AddDocument("", "parent", "")
		c.AddDocument(parentID, "a", "")
		c.AddDocument(parentID, "b", "")

		n, err := outline.DeleteChildren(ctx, c, parentID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, c.DeleteInputs, 2)

		_, ok := c.Document(parentID)
		assert.True(t, ok)
	})
	t.Run("CreateOutputOverridesDefault", func(t *testing.T) {
		id := "fixed"
		c := &DocumentClient{CreateOutput: &id}

		created, err := c.Create(ctx, "parent", "title", "text")
		require.NoError(t, err)
		assert.Equal(t, "fixed", created)
		assert.Equal(t, "title", c.CreateInput.Title)
		_, ok := c.Document("fixed")
		assert.False(t, ok)
	})
}
