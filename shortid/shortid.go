// Package shortid converts post identifiers between the canonical
// 36-character UUID text and a compact 22-character URL-safe form.
package shortid

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformedIdentifier is returned when a string is neither a valid short
// nor a valid canonical identifier.
var ErrMalformedIdentifier = errors.New("malformed identifier")

// Len is the length of every short identifier.
const Len = 22

var encoding = base64.RawURLEncoding.Strict()

// Encode packs the 16 raw bytes of id into unpadded base64url.
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Decode is the inverse of Encode.
func Decode(s string) (uuid.UUID, error) {
	if len(s) != Len {
		return uuid.Nil, fmt.Errorf("%w: short id %q has length %d", ErrMalformedIdentifier, s, len(s))
	}
	raw, err := encoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: short id %q: %v", ErrMalformedIdentifier, s, err)
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: short id %q: %v", ErrMalformedIdentifier, s, err)
	}
	return id, nil
}

// IsCanonical reports whether s has the hyphenated 36-character shape.
func IsCanonical(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}

// Parse accepts either form.
func Parse(s string) (uuid.UUID, error) {
	if IsCanonical(s) {
		return uuid.MustParse(s), nil
	}
	return Decode(s)
}

// Candidates lists every spelling under which the identifier s may have been
// persisted: the short form plus lower and upper case canonical text.
func Candidates(s string) ([]string, error) {
	id, err := Parse(s)
	if err != nil {
		return nil, err
	}
	canonical := id.String()
	out := []string{Encode(id), canonical, strings.ToUpper(canonical)}
	for _, c := range out {
		if c == s {
			return out, nil
		}
	}
	return append(out, s), nil
}
