package vault

import "strings"

const (
	kvPrefix     = "secret/"
	kvDataPrefix = "secret/data/"
)

// NormalizePath rewrites a logical KV v2 secret path into the path used to read
// and write its data, e.g. "secret/app/db" becomes "secret/data/app/db". Paths
// outside the "secret/" mount and paths already in data form are returned
// unchanged, so normalizing twice is the same as normalizing once.
func NormalizePath(path string) string {
	if strings.HasPrefix(path, kvPrefix) && !strings.HasPrefix(path, kvDataPrefix) {
		return strings.Replace(path, kvPrefix, kvDataPrefix, 1)
	}
	return path
}
