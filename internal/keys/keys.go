// Package keys derives DynamoDB keys for catalog items and their unique
// constraint rows.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// IDLength is the length of an item identifier in hex characters.
const IDLength = 24

// NewID returns a new 24 hex character item identifier. The first 12 bytes
// of a UUIDv7 are used, so identifiers sort roughly by creation time.
func NewID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return hex.EncodeToString(u[:IDLength/2]), nil
}

// ConstraintPK computes the partition key of a unique constraint row.
// Hashing spreads constraints across partitions and keeps arbitrary values
// within key size limits. scope separates catalogs sharing one constraint
// table.
func ConstraintPK(scope, field, value string) string {
	data := fmt.Sprintf("%s#%s#%s", scope, field, value)
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:16])
}
