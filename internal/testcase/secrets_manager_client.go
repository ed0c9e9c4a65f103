package testcase

import (
	"context"
	"testing"

	"github.com/GlueOps/glueops"
	"github.com/GlueOps/glueops/internal/testutil"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SecretsManagerClientTestCase represents a test case for a
// glueops.SecretsManagerClient.
type SecretsManagerClientTestCase func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient)

// SecretsManagerClientTests returns common test cases that a
// glueops.SecretsManagerClient should support.
func SecretsManagerClientTests() map[string]SecretsManagerClientTestCase {
	return map[string]SecretsManagerClientTestCase{
		"CreateSecretSucceeds": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			out := testutil.CreateSecret(ctx, t, c, secretsmanager.CreateSecretInput{
				Name:         aws.String(testutil.NewSecretName(t)),
				SecretString: aws.String(utility.RandomString()),
			})
			assert.NotZero(t, out.Name)
		},
		"CreateSecretFailsWithInvalidInput": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			out, err := c.CreateSecret(ctx, &secretsmanager.CreateSecretInput{})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"CreateSecretFailsWithExistingSecret": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			in := secretsmanager.CreateSecretInput{
				Name:         aws.String(testutil.NewSecretName(t)),
				SecretString: aws.String("foo"),
			}
			testutil.CreateSecret(ctx, t, c, in)

			out, err := c.CreateSecret(ctx, &in)
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"GetSecretValueSucceedsWithExistingSecret": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			secretName := testutil.NewSecretName(t)
			createOut := testutil.CreateSecret(ctx, t, c, secretsmanager.CreateSecretInput{
				Name:         aws.String(secretName),
				SecretString: aws.String("foo"),
			})

			out, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
				SecretId: createOut.ARN,
			})
			require.NoError(t, err)
			require.NotZero(t, out)
			assert.Equal(t, "foo", utility.FromStringPtr(out.SecretString))
			assert.Equal(t, secretName, utility.FromStringPtr(out.Name))
		},
		"GetSecretValueFailsWithInvalidInput": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			out, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"GetSecretValueFailsWithValidNonexistentSecret": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			out, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
				SecretId: aws.String(testutil.NewSecretName(t)),
			})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"PutSecretValueSucceedsWithExistingSecret": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			createOut := testutil.CreateSecret(ctx, t, c, secretsmanager.CreateSecretInput{
				Name:         aws.String(testutil.NewSecretName(t)),
				SecretString: aws.String("bar"),
			})

			putOut, err := c.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
				SecretId:     createOut.ARN,
				SecretString: aws.String("leaf"),
			})
			require.NoError(t, err)
			require.NotZero(t, putOut)

			getOut, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
				SecretId: createOut.ARN,
			})
			require.NoError(t, err)
			require.NotZero(t, getOut)
			assert.Equal(t, "leaf", utility.FromStringPtr(getOut.SecretString))
		},
		"PutSecretValueFailsWithInvalidInput": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			out, err := c.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"PutSecretValueFailsWithValidNonexistentSecret": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			out, err := c.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
				SecretId:     aws.String(testutil.NewSecretName(t)),
				SecretString: aws.String("hello"),
			})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"DeleteSecretFailsWithInvalidInput": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			out, err := c.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{})
			assert.Error(t, err)
			assert.Zero(t, out)
		},
		"DeleteSecretMakesSecretUnreadable": func(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient) {
			createOut, err := c.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
				Name:         aws.String(testutil.NewSecretName(t)),
				SecretString: aws.String("bar"),
			})
			require.NoError(t, err)
			require.NotZero(t, createOut)

			deleteOut, err := c.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
				SecretId:                   createOut.ARN,
				ForceDeleteWithoutRecovery: aws.Bool(true),
			})
			require.NoError(t, err)
			require.NotZero(t, deleteOut)

			getOut, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
				SecretId: createOut.ARN,
			})
			assert.Error(t, err)
			assert.Zero(t, getOut)
		},
	}
}
