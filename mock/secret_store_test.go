package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/GlueOps/glueops"
	"github.com/GlueOps/glueops/internal/testcase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for tName, tCase := range testcase.SecretStoreTests() {
		t.Run(tName, func(t *testing.T) {
			tctx, tcancel := context.WithTimeout(ctx, defaultTestTimeout)
			defer tcancel()

			tCase(tctx, t, NewSecretStore())
		})
	}

	t.Run("ReadOfLogicalPathMatchesDataPath", func(t *testing.T) {
		s := NewSecretStore()
		require.NoError(t, s.Write(ctx, "secret/app", map[string]string{"k": "v"}))

		data, err := s.Read(ctx, "secret/data/app")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"k": "v"}, data)
	})
	t.Run("ReadOfMissingSecretIsAPIError", func(t *testing.T) {
		_, err := NewSecretStore().Read(ctx, "secret/missing")
		assert.True(t, glueops.IsAPIError(err))
	})
	t.Run("ReadReturnsCopy", func(t *testing.T) {
		s := NewSecretStore()
		require.NoError(t, s.Write(ctx, "secret/app", map[string]string{"k": "v"}))

		data, err := s.Read(ctx, "secret/app")
		require.NoError(t, err)
		data["k"] = "changed"

		data, err = s.Read(ctx, "secret/app")
		require.NoError(t, err)
		assert.Equal(t, "v", data["k"])
	})
	t.Run("ZeroValueIsUsable", func(t *testing.T) {
		var s SecretStore
		require.NoError(t, s.Write(ctx, "kv/app", map[string]string{"k": "v"}))
		assert.Equal(t, "kv/app", s.WriteInput.Path)
	})
	t.Run("OutputsOverrideDefaults", func(t *testing.T) {
		s := NewSecretStore()
		s.ReadError = glueops.NewRedirectError("/login", 302)
		s.WriteError = errors.New("fake error")

		_, err := s.Read(ctx, "secret/app")
		assert.True(t, glueops.IsRedirectError(err))
		assert.Equal(t, "secret/app", *s.ReadInput)
		assert.EqualError(t, s.Write(ctx, "secret/app", nil), "fake error")
	})
}
