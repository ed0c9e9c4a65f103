package testcase

import (
	"context"
	"testing"

	"github.com/GlueOps/glueops"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SecretStoreTestCase represents a test case for a glueops.SecretStore.
type SecretStoreTestCase func(ctx context.Context, t *testing.T, s glueops.SecretStore)

// SecretStoreTests returns common test cases that a glueops.SecretStore
// should support.
func SecretStoreTests() map[string]SecretStoreTestCase {
	return map[string]SecretStoreTestCase{
		"WriteThenReadSucceeds": func(ctx context.Context, t *testing.T, s glueops.SecretStore) {
			path := "secret/" + utility.RandomString()
			data := map[string]string{"username": "admin", "password": utility.RandomString()}
			require.NoError(t, s.Write(ctx, path, data))

			read, err := s.Read(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, data, read)
		},
		"WriteOverwritesExistingData": func(ctx context.Context, t *testing.T, s glueops.SecretStore) {
			path := "secret/" + utility.RandomString()
			require.NoError(t, s.Write(ctx, path, map[string]string{"old": "value"}))
			require.NoError(t, s.Write(ctx, path, map[string]string{"new": "value"}))

			read, err := s.Read(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"new": "value"}, read)
		},
		"ReadFailsWithNonexistentSecret": func(ctx context.Context, t *testing.T, s glueops.SecretStore) {
			read, err := s.Read(ctx, "secret/"+utility.RandomString())
			assert.Error(t, err)
			assert.Zero(t, read)
		},
	}
}
