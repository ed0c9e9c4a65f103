package glueops

import "context"

// SecretStore provides a common interface to read and write key-value secrets
// in a secrets storage service.
type SecretStore interface {
	// Read returns the key-value pairs stored at the secret path.
	Read(ctx context.Context, path string) (map[string]string, error)
	// Write replaces the key-value pairs stored at the secret path.
	Write(ctx context.Context, path string, data map[string]string) error
}
