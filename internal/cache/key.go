package cache

import "strings"

// Key identifies a resource as an ordered tuple of segments. Equality is
// structural.
type Key []string

func K(parts ...string) Key {
	return Key(parts)
}

func (k Key) String() string {
	return strings.Join(k, "/")
}

func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix matches the leading segments of k. The
// empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	return k[:len(prefix)].Equal(prefix)
}

// id is the map key; segments may contain "/" so String is not injective.
func (k Key) id() string {
	return strings.Join(k, "\x00")
}

func (k Key) clone() Key {
	out := make(Key, len(k))
	copy(out, k)
	return out
}
