package entry

import "strings"

// VciIDPrefixLen is the number of characters a VciId is shortened to.
const VciIDPrefixLen = 7

// IDMap is a persistent map from shortened VciId to the first full VciId
// that produced it. Updates return a new map and never modify the receiver,
// so an unchanged map compares equal (==) to its previous value.
// The zero value is an empty map.
type IDMap struct {
	head *idNode
}

type idNode struct {
	key    string
	value  string
	parent *idNode
	size   int
}

// Get returns the full identifier registered for a shortened key.
func (m IDMap) Get(key string) (string, bool) {
	for n := m.head; n != nil; n = n.parent {
		if n.key == key {
			return n.value, true
		}
	}
	return "", false
}

// Len returns the number of registered keys.
func (m IDMap) Len() int {
	if m.head == nil {
		return 0
	}
	return m.head.size
}

// With returns a map that additionally maps key to value. Existing keys are
// shadowed, but SimplifyID never registers a key twice.
func (m IDMap) With(key, value string) IDMap {
	return IDMap{head: &idNode{key: key, value: value, parent: m.head, size: m.Len() + 1}}
}

// Range calls fn for each entry, most recently registered first, until fn returns false.
func (m IDMap) Range(fn func(key, value string) bool) {
	for n := m.head; n != nil; n = n.parent {
		if !fn(n.key, n.value) {
			return
		}
	}
}

// LeadingID strips hyphens and keeps the first VciIDPrefixLen characters.
func LeadingID(raw string) string {
	id := []rune(strings.ReplaceAll(raw, "-", ""))
	if len(id) <= VciIDPrefixLen {
		return string(id)
	}
	return string(id[:VciIDPrefixLen])
}

// SimplifyID shortens raw against m. The first identifier to claim a prefix
// owns it; a later, different identifier with the same prefix is returned
// unshortened and m is left untouched.
func SimplifyID(raw string, m IDMap) (string, IDMap) {
	short := LeadingID(raw)
	owner, ok := m.Get(short)
	switch {
	case !ok:
		return short, m.With(short, raw)
	case owner == raw:
		return short, m
	default:
		return raw, m
	}
}
