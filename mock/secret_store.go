package mock

import (
	"context"
	"net/http"
	"sync"

	"github.com/GlueOps/glueops"
	"github.com/GlueOps/glueops/vault"
	"github.com/pkg/errors"
)

// SecretStore provides a mock implementation of a glueops.SecretStore backed
// by an in-memory map. Paths are normalized the same way as the Vault store,
// so a logical path and its data path refer to the same secret.
type SecretStore struct {
	mu      sync.Mutex
	secrets map[string]map[string]string

	ReadInput  *string
	ReadOutput map[string]string
	ReadError  error

	WriteInput *SecretStoreWriteInput
	WriteError error
}

// SecretStoreWriteInput is the input to a SecretStore's Write.
type SecretStoreWriteInput struct {
	Path string
	Data map[string]string
}

// NewSecretStore returns a new mock secret store with no secrets.
func NewSecretStore() *SecretStore {
	return &SecretStore{secrets: map[string]map[string]string{}}
}

// Read saves the input and returns the stored secret. The mock output can be
// customized. By default, it returns a copy of the stored secret, or a 404
// glueops.APIError if there is none.
func (s *SecretStore) Read(ctx context.Context, path string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ReadInput = &path

	if s.ReadOutput != nil || s.ReadError != nil {
		return s.ReadOutput, s.ReadError
	}

	path = vault.NormalizePath(path)
	data, ok := s.secrets[path]
	if !ok {
		return nil, errors.Wrapf(glueops.NewAPIError(http.StatusNotFound, "secret not found"), "reading secret '%s'", path)
	}

	return copySecret(data), nil
}

// Write saves the input and stores the secret. The mock output can be
// customized. By default, it replaces the stored secret with a copy of the
// data.
func (s *SecretStore) Write(ctx context.Context, path string, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.WriteInput = &SecretStoreWriteInput{Path: path, Data: data}

	if s.WriteError != nil {
		return s.WriteError
	}

	if s.secrets == nil {
		s.secrets = map[string]map[string]string{}
	}
	s.secrets[vault.NormalizePath(path)] = copySecret(data)

	return nil
}

func copySecret(data map[string]string) map[string]string {
	copied := make(map[string]string, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return copied
}
