package outline

import (
	"context"

	"github.com/GlueOps/glueops"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// CollectChildIDs drains the client's child enumeration for the parent into a
// slice.
func CollectChildIDs(ctx context.Context, c glueops.DocumentClient, parentID string) ([]string, error) {
	var ids []string
	for id, err := range c.ChildIDs(ctx, parentID) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteChildren deletes every document directly under the parent and returns
// the number of documents deleted. All the child IDs are listed before any
// deletion so that removing documents does not shift the pages being walked.
// It stops at the first failed deletion.
func DeleteChildren(ctx context.Context, c glueops.DocumentClient, parentID string) (int, error) {
	ids, err := CollectChildIDs(ctx, c, parentID)
	if err != nil {
		return 0, errors.Wrap(err, "listing child documents to delete")
	}

	grip.Debug(message.Fields{
		"message":  "deleting child documents",
		"parent":   parentID,
		"children": ids,
	})

	for i, id := range ids {
		if err := c.Delete(ctx, id); err != nil {
			return i, errors.Wrapf(err, "deleting child %d of %d", i+1, len(ids))
		}
	}

	grip.Info(message.Fields{
		"message":     "deleted child documents",
		"parent":      parentID,
		"num_deleted": len(ids),
	})

	return len(ids), nil
}
