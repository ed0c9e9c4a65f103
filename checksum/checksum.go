// Package checksum computes string digests used to detect content changes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/crc32"
)

// CRC32 returns the IEEE CRC-32 of s as "0x"-prefixed lowercase hex without
// zero padding. The empty string yields "0x0".
func CRC32(s string) string {
	return fmt.Sprintf("%#x", crc32.ChecksumIEEE([]byte(s)))
}

// SHA224 returns the lowercase hex SHA-224 digest of s.
func SHA224(s string) string {
	sum := sha256.Sum224([]byte(s))
	return hex.EncodeToString(sum[:])
}
