package tag

import (
	"context"
	"sort"

	"github.com/GlueOps/glueops"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// ResourceARNs returns the ARNs of all the resources that carry every one of
// the given tags and match any of the resource types (e.g. "ec2:instance"). An
// empty resource type list matches every type. The ARNs are in the order that
// the API returns them.
func ResourceARNs(ctx context.Context, c glueops.TagClient, tags map[string]string, resourceTypes []string) ([]string, error) {
	in := &resourcegroupstaggingapi.GetResourcesInput{
		TagFilters:          tagFilters(tags),
		ResourceTypeFilters: resourceTypes,
	}

	arns := []string{}
	for {
		out, err := c.GetResources(ctx, in)
		if err != nil {
			return nil, errors.Wrap(err, "getting resources")
		}
		if out == nil {
			return nil, errors.New("getting resources returned no output")
		}

		for _, mapping := range out.ResourceTagMappingList {
			if arn := utility.FromStringPtr(mapping.ResourceARN); arn != "" {
				arns = append(arns, arn)
			}
		}

		token := utility.FromStringPtr(out.PaginationToken)
		if token == "" {
			break
		}
		in.PaginationToken = aws.String(token)
	}

	grip.Debug(message.Fields{
		"message":        "found resources matching tags",
		"tags":           tags,
		"resource_types": resourceTypes,
		"num_resources":  len(arns),
	})

	return arns, nil
}

// tagFilters converts the tags to one filter per key. Keys are sorted so that
// requests are deterministic.
func tagFilters(tags map[string]string) []types.TagFilter {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filters := make([]types.TagFilter, 0, len(keys))
	for _, k := range keys {
		filters = append(filters, types.TagFilter{
			Key:    aws.String(k),
			Values: []string{tags[k]},
		})
	}
	return filters
}
