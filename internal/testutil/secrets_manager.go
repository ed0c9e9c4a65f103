package testutil

import (
	"context"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/GlueOps/glueops"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectName = "glueops"

// NewSecretName creates a new test secret name with a common prefix, the given
// test's name, and a random string.
func NewSecretName(t *testing.T) string {
	return path.Join(strings.TrimSuffix(SecretPrefix(), "/"), projectName, runtimeNamespace, t.Name(), utility.RandomString())
}

// SecretPrefix returns the prefix name for secrets from the environment
// variable.
func SecretPrefix() string {
	return os.Getenv("AWS_SECRET_PREFIX")
}

// CreateSecret is a convenience function for creating a Secrets Manager secret
// and verifying that the result is successful and populates the secret ARN.
// The secret is deleted when the test finishes.
func CreateSecret(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient, in secretsmanager.CreateSecretInput) secretsmanager.CreateSecretOutput {
	out, err := c.CreateSecret(ctx, &in)
	require.NoError(t, err)
	require.NotZero(t, out)
	require.NotZero(t, out.ARN)

	arn := *out.ARN
	t.Cleanup(func() {
		CleanupSecret(context.Background(), t, c, arn)
	})

	return *out
}

// CleanupSecret deletes the secret without recovery.
func CleanupSecret(ctx context.Context, t *testing.T, c glueops.SecretsManagerClient, id string) {
	_, err := c.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		ForceDeleteWithoutRecovery: utility.TruePtr(),
		SecretId:                   &id,
	})
	if assert.NoError(t, err) {
		grip.Info(message.Fields{
			"message": "cleaned up secret",
			"id":      id,
			"test":    t.Name(),
		})
	}
}
