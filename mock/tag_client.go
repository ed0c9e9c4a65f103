package mock

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/evergreen-ci/utility"
)

const secretResourceType = "secretsmanager:secret"

// TaggedResource represents an arbitrary AWS resource with its tags.
type TaggedResource struct {
	ARN string
	// Type is the service and resource type (e.g. "ec2:instance").
	Type string
	Tags map[string]string
}

func exportTagMapping(res TaggedResource) types.ResourceTagMapping {
	return types.ResourceTagMapping{
		ResourceARN: utility.ToStringPtr(res.ARN),
		Tags:        exportResourceTags(res.Tags),
	}
}

func exportResourceTags(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exported := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		exported = append(exported, types.Tag{
			Key:   utility.ToStringPtr(k),
			Value: utility.ToStringPtr(tags[k]),
		})
	}
	return exported
}

// matchesType returns whether the resource matches the resource type filter,
// which is either a service (e.g. "ec2") or a service and resource type (e.g.
// "ec2:instance").
func (res TaggedResource) matchesType(filter string) bool {
	if strings.Contains(filter, ":") {
		return res.Type == filter
	}
	return strings.HasPrefix(res.Type, filter+":")
}

// matchesTag returns whether the resource has the tag key and, if any values
// are given, one of the values.
func (res TaggedResource) matchesTag(key string, values []string) bool {
	v, ok := res.Tags[key]
	if !ok {
		return false
	}
	return len(values) == 0 || utility.StringSliceContains(values, v)
}

// TagClient provides a mock implementation of a glueops.TagClient. This makes
// it possible to introspect on inputs to the client and control the client's
// output. It provides some default implementations where possible. By default,
// it will search the Resources and the secrets in the GlobalSecretCache.
type TagClient struct {
	// Resources are the tagged resources that can be found in addition to the
	// secrets in the GlobalSecretCache.
	Resources []TaggedResource
	// PageSize is the maximum number of resources returned per call. If zero,
	// all matching resources are returned at once.
	PageSize int

	mu sync.Mutex

	GetResourcesInput  *resourcegroupstaggingapi.GetResourcesInput
	GetResourcesInputs []resourcegroupstaggingapi.GetResourcesInput
	GetResourcesOutput *resourcegroupstaggingapi.GetResourcesOutput
	GetResourcesError  error

	CloseError error
}

// GetResources saves the input and filters for the resources matching the
// input filters. The mock output can be customized. By default, it returns
// the matching resources from the Resources and the GlobalSecretCache. A
// resource matches if it has every tag filter's key (with one of its values,
// if any are given) and any of the resource type filters.
func (c *TagClient) GetResources(ctx context.Context, in *resourcegroupstaggingapi.GetResourcesInput) (*resourcegroupstaggingapi.GetResourcesOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.GetResourcesInput = in
	if in != nil {
		c.GetResourcesInputs = append(c.GetResourcesInputs, *in)
	}

	if c.GetResourcesOutput != nil || c.GetResourcesError != nil {
		return c.GetResourcesOutput, c.GetResourcesError
	}

	for _, f := range in.TagFilters {
		if utility.FromStringPtr(f.Key) == "" {
			return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("tag filter key cannot be empty")}
		}
	}
	for _, f := range in.ResourceTypeFilters {
		if f == "" {
			return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("resource type filter cannot be empty")}
		}
	}

	var matching []TaggedResource
	for _, res := range c.allResources() {
		if c.matches(res, in) {
			matching = append(matching, res)
		}
	}

	start := 0
	if token := utility.FromStringPtr(in.PaginationToken); token != "" {
		var err error
		start, err = strconv.Atoi(token)
		if err != nil || start < 0 || start > len(matching) {
			return nil, &types.PaginationTokenExpiredException{Message: utility.ToStringPtr("invalid pagination token")}
		}
	}
	end := len(matching)
	if c.PageSize > 0 && start+c.PageSize < end {
		end = start + c.PageSize
	}

	out := &resourcegroupstaggingapi.GetResourcesOutput{
		ResourceTagMappingList: []types.ResourceTagMapping{},
	}
	for _, res := range matching[start:end] {
		out.ResourceTagMappingList = append(out.ResourceTagMappingList, exportTagMapping(res))
	}
	if end < len(matching) {
		out.PaginationToken = utility.ToStringPtr(strconv.Itoa(end))
	}

	return out, nil
}

// allResources returns the Resources followed by the live secrets in the
// GlobalSecretCache, sorted by name.
func (c *TagClient) allResources() []TaggedResource {
	all := append([]TaggedResource{}, c.Resources...)

	globalSecretCacheMu.Lock()
	defer globalSecretCacheMu.Unlock()

	var secrets []TaggedResource
	for _, s := range GlobalSecretCache {
		if s.IsDeleted {
			continue
		}
		secrets = append(secrets, TaggedResource{
			ARN:  s.Name,
			Type: secretResourceType,
			Tags: s.Tags,
		})
	}
	sort.Slice(secrets, func(i, j int) bool { return secrets[i].ARN < secrets[j].ARN })

	return append(all, secrets...)
}

func (c *TagClient) matches(res TaggedResource, in *resourcegroupstaggingapi.GetResourcesInput) bool {
	if len(in.ResourceTypeFilters) != 0 {
		var typeMatches bool
		for _, f := range in.ResourceTypeFilters {
			if res.matchesType(f) {
				typeMatches = true
				break
			}
		}
		if !typeMatches {
			return false
		}
	}

	for _, f := range in.TagFilters {
		if !res.matchesTag(utility.FromStringPtr(f.Key), f.Values) {
			return false
		}
	}

	return true
}

// Close closes the mock client. The mock output can be customized. By default,
// it is a no-op that returns no error.
func (c *TagClient) Close(ctx context.Context) error {
	if c.CloseError != nil {
		return c.CloseError
	}

	return nil
}
