package syncer

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/five82/swiftrun/internal/booking"
)

// Fingerprint is the BLAKE3 digest of a snapshot's canonical encoding.
// Two snapshots are structurally equal when their fingerprints match.
// Items are sanitised first so a remote snapshot that only lacks the
// defaults ReplaceAll would fill in compares equal to its local copy.
// Encoding fails for non-finite coordinates, which validation keeps out
// of the store but a remote blob may still carry.
func Fingerprint(items []booking.Booking) (string, error) {
	data, err := booking.Encode(booking.Sanitize(items))
	if err != nil {
		return "", fmt.Errorf("fingerprint snapshot: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
