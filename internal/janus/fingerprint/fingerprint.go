// Package fingerprint derives the store key for a scanned identifier.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// ErrEmpty is returned for decoded text that is empty after trimming.
var ErrEmpty = errors.New("fingerprint: empty code")

// Of trims surrounding whitespace from raw and returns the hex SHA-256 of
// the remainder. No salt is applied, so the result is stable across runs
// and stations.
func Of(raw string) (types.Fingerprint, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", ErrEmpty
	}
	sum := sha256.Sum256([]byte(code))
	return types.Fingerprint(hex.EncodeToString(sum[:])), nil
}

// MustOf is Of for inputs known to be non-empty, such as provisioning lists.
func MustOf(raw string) types.Fingerprint {
	fp, err := Of(raw)
	if err != nil {
		panic(err)
	}
	return fp
}
