package option

import (
	"slices"
	"strings"
)

// List is an immutable, insertion-ordered set of options with unique names.
// The zero value is an empty list.
type List struct {
	pairs []Pair
}

// NewList validates pairs and keeps them in the given order.
func NewList(pairs ...Pair) (List, error) {
	if len(pairs) == 0 {
		return List{}, nil
	}
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if err := validatePair(p); err != nil {
			return List{}, &PairError{Offset: len(out), Name: p.Name, Err: err}
		}
		if indexOf(out, p.Name) >= 0 {
			return List{}, &PairError{Offset: len(out), Name: p.Name, Err: ErrDuplicateName}
		}
		out = append(out, p)
	}
	return List{pairs: out}, nil
}

// FromMap builds a list from m with names sorted, so the result is stable.
func FromMap(m map[string]string) (List, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	pairs := make([]Pair, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, Pair{Name: name, Value: m[name]})
	}
	return NewList(pairs...)
}

func (l List) Len() int {
	return len(l.pairs)
}

// Pairs returns a copy of the options in stored order.
func (l List) Pairs() []Pair {
	if len(l.pairs) == 0 {
		return nil
	}
	out := make([]Pair, len(l.pairs))
	copy(out, l.pairs)
	return out
}

func (l List) Names() []string {
	out := make([]string, 0, len(l.pairs))
	for _, p := range l.pairs {
		out = append(out, p.Name)
	}
	return out
}

// Get looks name up case-insensitively.
func (l List) Get(name string) (string, bool) {
	i := indexOf(l.pairs, name)
	if i < 0 {
		return "", false
	}
	return l.pairs[i].Value, true
}

func (l List) Has(name string) bool {
	return indexOf(l.pairs, name) >= 0
}

// Equal compares l and o as mappings: order is ignored, names fold case,
// values must match exactly.
func (l List) Equal(o List) bool {
	if len(l.pairs) != len(o.pairs) {
		return false
	}
	for _, p := range l.pairs {
		v, ok := o.Get(p.Name)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// EncodedLen is the wire size of the list.
func (l List) EncodedLen() int {
	return PairsLen(l.pairs)
}

// AppendTo writes the list in stored order.
func (l List) AppendTo(dst []byte) []byte {
	return AppendPairs(dst, l.pairs)
}

func (l List) String() string {
	parts := make([]string, 0, len(l.pairs))
	for _, p := range l.pairs {
		parts = append(parts, p.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}
