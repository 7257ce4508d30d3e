package query

import (
	"fmt"
	"strings"
)

// Key identifies a cached read operation: an ordered tuple of the
// logical resource name and its distinguishing parameters, rendered as
// a "/"-separated string so prefix invalidation covers whole
// resources.
type Key string

// KeyOf builds a key from a resource name and its parameters, e.g.
// KeyOf("leads", "page", 1, "size", 50) == "leads/page=1/size=50"
// when given alternating name/value pairs, or plain positional parts.
func KeyOf(parts ...any) Key {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	return Key(strings.Join(strs, "/"))
}

// HasPrefix reports whether k falls under the given prefix on a
// segment boundary, so "leads" matches "leads/page=1" but not
// "leadscores".
func (k Key) HasPrefix(prefix Key) bool {
	if k == prefix {
		return true
	}
	return strings.HasPrefix(string(k), string(prefix)+"/")
}
