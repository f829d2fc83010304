package model

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// JobIDLength is the length of a job id in hex characters.
const JobIDLength = 24

// NewJobID returns a 24 character hex id: a 4 byte big-endian seconds
// timestamp followed by 8 random bytes. Ids sort by creation second.
func NewJobID(now time.Time) (string, error) {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(now.Unix())) // #nosec G115 - seconds fit in uint32 until 2106
	if _, err := rand.Read(b[4:]); err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// ValidJobID reports whether id is exactly 24 lowercase or uppercase hex characters.
func ValidJobID(id string) bool {
	if len(id) != JobIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return false
		}
	}
	return true
}

// JobIDTime extracts the embedded creation time from a job id.
func JobIDTime(id string) (time.Time, error) {
	if !ValidJobID(id) {
		return time.Time{}, fmt.Errorf("job id %q is not a legal ID", id)
	}
	b, err := hex.DecodeString(id[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("decode job id: %w", err)
	}
	return time.Unix(int64(binary.BigEndian.Uint32(b)), 0).UTC(), nil
}
