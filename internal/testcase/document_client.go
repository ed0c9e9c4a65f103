package testcase

import (
	"context"
	"testing"

	"github.com/GlueOps/glueops"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DocumentClientTestCase represents a test case for a glueops.DocumentClient.
// The parent ID is an existing document that has no children.
type DocumentClientTestCase func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string)

// DocumentClientTests returns common test cases that a glueops.DocumentClient
// should support.
func DocumentClientTests() map[string]DocumentClientTestCase {
	collect := func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) []string {
		var ids []string
		for id, err := range c.ChildIDs(ctx, parentID) {
			require.NoError(t, err)
			ids = append(ids, id)
		}
		return ids
	}

	return map[string]DocumentClientTestCase{
		"CreateAddsChild": func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) {
			id, err := c.Create(ctx, parentID, "title", "text")
			require.NoError(t, err)
			require.NotZero(t, id)

			assert.Equal(t, []string{id}, collect(ctx, t, c, parentID))
		},
		"ChildIDsEnumeratesAllChildrenInOrder": func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) {
			var expected []string
			for i := 0; i < 4; i++ {
				id, err := c.Create(ctx, parentID, utility.RandomString(), "text")
				require.NoError(t, err)
				expected = append(expected, id)
			}

			assert.Equal(t, expected, collect(ctx, t, c, parentID))
		},
		"ChildIDsIsEmptyWithoutChildren": func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) {
			assert.Empty(t, collect(ctx, t, c, parentID))
		},
		"ChildIDsStopsWhenCallerStops": func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) {
			first, err := c.Create(ctx, parentID, "first", "text")
			require.NoError(t, err)
			_, err = c.Create(ctx, parentID, "second", "text")
			require.NoError(t, err)

			var ids []string
			for id, err := range c.ChildIDs(ctx, parentID) {
				require.NoError(t, err)
				ids = append(ids, id)
				break
			}
			assert.Equal(t, []string{first}, ids)
		},
		"GetIDReturnsDocumentID": func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) {
			id, err := c.GetID(ctx, parentID)
			require.NoError(t, err)
			assert.Equal(t, parentID, id)
		},
		"UpdateContentSucceedsForExistingDocument": func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) {
			assert.NoError(t, c.UpdateContent(ctx, parentID, "# updated"))
		},
		"UpdateContentFailsWithNonexistentDocument": func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) {
			assert.Error(t, c.UpdateContent(ctx, utility.RandomString(), "# updated"))
		},
		"DeleteRemovesChild": func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) {
			keep, err := c.Create(ctx, parentID, "keep", "text")
			require.NoError(t, err)
			remove, err := c.Create(ctx, parentID, "remove", "text")
			require.NoError(t, err)

			require.NoError(t, c.Delete(ctx, remove))
			assert.Equal(t, []string{keep}, collect(ctx, t, c, parentID))
		},
		"DeleteFailsWithNonexistentDocument": func(ctx context.Context, t *testing.T, c glueops.DocumentClient, parentID string) {
			err := c.Delete(ctx, utility.RandomString())
			assert.True(t, glueops.IsAPIError(err))
		},
	}
}
