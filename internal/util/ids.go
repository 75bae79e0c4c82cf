package util

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ParseID parses a textual UUID. name is used in the returned error so that
// callers can surface which identifier was malformed.
func ParseID(name, value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid uuid: %q", name, value)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s must not be the nil uuid", name)
	}
	return id, nil
}

// IDStrings renders ids for queries that bind a uuid[] parameter.
func IDStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
