package index

import (
	"fmt"
	"sort"
)

// Kind selects the per-chromosome tree implementation.
type Kind int

const (
	// KindLLRB uses a balanced left-leaning red-black interval tree.
	KindLLRB Kind = iota
	// KindSorted uses a sorted slice with a prefix-max array.
	KindSorted
)

var kindNames = map[string]Kind{
	"llrb":   KindLLRB,
	"sorted": KindSorted,
}

func (k Kind) String() string {
	for name, v := range kindNames {
		if v == k {
			return name
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Known returns the names accepted by ParseKind.
func Known() []string {
	names := make([]string, 0, len(kindNames))
	for name := range kindNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseKind maps a tree name to its Kind. An empty name selects KindLLRB.
func ParseKind(name string) (Kind, error) {
	if name == "" {
		return KindLLRB, nil
	}
	k, ok := kindNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown index kind %q (known: %v)", name, Known())
	}
	return k, nil
}

func newTree[T any](kind Kind, entries []*Entry[T]) (tree[T], error) {
	switch kind {
	case KindLLRB:
		return buildLLRB(entries)
	case KindSorted:
		return buildSorted(entries), nil
	}
	return nil, fmt.Errorf("unsupported index kind %v", kind)
}
