package testcase

import (
	"context"
	"testing"

	"github.com/GlueOps/glueops"
	"github.com/GlueOps/glueops/internal/testutil"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	rgttypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TagClientTestCase represents a test case for a glueops.TagClient.
type TagClientTestCase func(ctx context.Context, t *testing.T, c glueops.TagClient)

// TagClientTests returns common test cases that a glueops.TagClient should
// support.
func TagClientTests() map[string]TagClientTestCase {
	return map[string]TagClientTestCase{
		"GetResourcesFailsWithInvalidInput": func(ctx context.Context, t *testing.T, c glueops.TagClient) {
			out, err := c.GetResources(ctx, &resourcegroupstaggingapi.GetResourcesInput{
				TagFilters: []rgttypes.TagFilter{
					{
						Values: []string{""},
					},
				},
			})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"GetResourcesSucceedsWithNoResults": func(ctx context.Context, t *testing.T, c glueops.TagClient) {
			out, err := c.GetResources(ctx, &resourcegroupstaggingapi.GetResourcesInput{
				ResourceTypeFilters: []string{"secretsmanager"},
				TagFilters: []rgttypes.TagFilter{
					{
						Key:    aws.String(utility.RandomString()),
						Values: []string{utility.RandomString()},
					},
				},
			})
			require.NoError(t, err)
			require.NotZero(t, out)
			assert.Empty(t, out.ResourceTagMappingList)
		},
	}
}

// TagClientSecretTestCase represents a test case for a glueops.TagClient with a
// glueops.SecretsManagerClient.
type TagClientSecretTestCase func(ctx context.Context, t *testing.T, tagClient glueops.TagClient, smClient glueops.SecretsManagerClient)

// TagClientSecretTests returns common test cases that rely on Secrets Manager
// that a glueops.TagClient should support.
func TagClientSecretTests() map[string]TagClientSecretTestCase {
	checkResources := func(t *testing.T, out *resourcegroupstaggingapi.GetResourcesOutput, expected []string) {
		require.NotZero(t, out)
		require.Len(t, out.ResourceTagMappingList, len(expected), "number of results should match expected")
		for _, res := range out.ResourceTagMappingList {
			arn := utility.FromStringPtr(res.ResourceARN)
			assert.True(t, utility.StringSliceContains(expected, arn), "unexpected resource '%s' in results", arn)
		}
	}
	createSecret := func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient, tags []smtypes.Tag) string {
		out := testutil.CreateSecret(ctx, t, c, secretsmanager.CreateSecretInput{
			Name:         aws.String(testutil.NewSecretName(t)),
			SecretString: aws.String(utility.RandomString()),
			Tags:         tags,
		})
		return utility.FromStringPtr(out.ARN)
	}
	newTag := func() smtypes.Tag {
		return smtypes.Tag{
			Key:   aws.String(utility.RandomString()),
			Value: aws.String(utility.RandomString()),
		}
	}

	return map[string]TagClientSecretTestCase{
		"GetResourcesMatchesSingleTagKeyAndValueForSingleResource": func(ctx context.Context, t *testing.T, tagClient glueops.TagClient, smClient glueops.SecretsManagerClient) {
			tag := newTag()
			arn := createSecret(ctx, t, smClient, []smtypes.Tag{tag})

			out, err := tagClient.GetResources(ctx, &resourcegroupstaggingapi.GetResourcesInput{
				ResourceTypeFilters: []string{"secretsmanager:secret"},
				TagFilters: []rgttypes.TagFilter{
					{
						Key:    tag.Key,
						Values: []string{*tag.Value},
					},
				},
			})
			require.NoError(t, err)

			checkResources(t, out, []string{arn})
		},
		"GetResourcesMatchesSingleKeyAndValueForMultipleResources": func(ctx context.Context, t *testing.T, tagClient glueops.TagClient, smClient glueops.SecretsManagerClient) {
			tag := newTag()
			var arns []string
			for i := 0; i < 3; i++ {
				arns = append(arns, createSecret(ctx, t, smClient, []smtypes.Tag{tag}))
			}

			out, err := tagClient.GetResources(ctx, &resourcegroupstaggingapi.GetResourcesInput{
				ResourceTypeFilters: []string{"secretsmanager:secret"},
				TagFilters: []rgttypes.TagFilter{
					{
						Key:    tag.Key,
						Values: []string{*tag.Value},
					},
				},
			})
			require.NoError(t, err)

			checkResources(t, out, arns)
		},
		"GetResourcesMatchesSingleTagKeyAndOneOfMultipleValues": func(ctx context.Context, t *testing.T, tagClient glueops.TagClient, smClient glueops.SecretsManagerClient) {
			tag := newTag()
			arn := createSecret(ctx, t, smClient, []smtypes.Tag{tag})

			out, err := tagClient.GetResources(ctx, &resourcegroupstaggingapi.GetResourcesInput{
				ResourceTypeFilters: []string{"secretsmanager:secret"},
				TagFilters: []rgttypes.TagFilter{
					{
						Key:    tag.Key,
						Values: []string{"foo", "bar", *tag.Value, "baz"},
					},
				},
			})
			require.NoError(t, err)

			checkResources(t, out, []string{arn})
		},
		"GetResourcesMatchesMultipleTagKeys": func(ctx context.Context, t *testing.T, tagClient glueops.TagClient, smClient glueops.SecretsManagerClient) {
			tags := []smtypes.Tag{newTag(), newTag()}
			arn := createSecret(ctx, t, smClient, tags)
			createSecret(ctx, t, smClient, tags[:1])

			out, err := tagClient.GetResources(ctx, &resourcegroupstaggingapi.GetResourcesInput{
				ResourceTypeFilters: []string{"secretsmanager:secret"},
				TagFilters: []rgttypes.TagFilter{
					{Key: tags[0].Key},
					{Key: tags[1].Key},
				},
			})
			require.NoError(t, err)

			checkResources(t, out, []string{arn})
		},
		"GetResourcesDoesNotMatchDifferentValue": func(ctx context.Context, t *testing.T, tagClient glueops.TagClient, smClient glueops.SecretsManagerClient) {
			tag := newTag()
			createSecret(ctx, t, smClient, []smtypes.Tag{tag})

			out, err := tagClient.GetResources(ctx, &resourcegroupstaggingapi.GetResourcesInput{
				ResourceTypeFilters: []string{"secretsmanager:secret"},
				TagFilters: []rgttypes.TagFilter{
					{
						Key:    tag.Key,
						Values: []string{utility.RandomString()},
					},
				},
			})
			require.NoError(t, err)

			checkResources(t, out, nil)
		},
	}
}
