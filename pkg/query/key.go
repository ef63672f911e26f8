package query

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Key identifies one cached read. Elements are strings, or nil for an absent
// value. Keys for the same logical resource must always have the same length
// and element order, e.g. Key{"slots", slug, serviceID, date, Opt(staffID)}.
type Key []any

// Opt returns nil for an empty string so optional parameters are keyed as absent.
func Opt(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// String is the canonical JSON form of the key and is used as the cache index.
func (k Key) String() string {
	encoded, err := json.Marshal([]any(k))
	if err != nil {
		// Only reachable with non-primitive elements.
		return fmt.Sprintf("%v", []any(k))
	}
	return string(encoded)
}

// HasPrefix reports whether the first len(prefix) elements of k equal prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if !reflect.DeepEqual(k[i], prefix[i]) {
			return false
		}
	}
	return true
}

// Equal reports element-wise equality.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}
