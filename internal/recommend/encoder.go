// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

import "fmt"

// Encoder is an immutable bijection between external identifiers and
// dense internal indices in [0, Len()).
type Encoder struct {
	ids   []string
	index map[string]int
}

// NewEncoder builds an encoder from an ordered list of identifiers.
// The position of an id in the list becomes its index.
func NewEncoder(ids []string) (*Encoder, error) {
	e := &Encoder{
		ids:   make([]string, len(ids)),
		index: make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("%w: empty id at position %d", ErrInvalidEncoder, i)
		}
		if prev, ok := e.index[id]; ok {
			return nil, fmt.Errorf("%w: duplicate id %q at positions %d and %d", ErrInvalidEncoder, id, prev, i)
		}
		e.index[id] = i
		e.ids[i] = id
	}
	return e, nil
}

// Encode returns the index of a known id.
func (e *Encoder) Encode(id string) (int, bool) {
	i, ok := e.index[id]
	return i, ok
}

// IsKnown reports whether the id has an index.
func (e *Encoder) IsKnown(id string) bool {
	_, ok := e.index[id]
	return ok
}

// Decode returns the id at index i.
func (e *Encoder) Decode(i int) (string, bool) {
	if i < 0 || i >= len(e.ids) {
		return "", false
	}
	return e.ids[i], true
}

// Len returns the number of known ids.
func (e *Encoder) Len() int {
	return len(e.ids)
}

// IDs returns a copy of the ids in index order.
func (e *Encoder) IDs() []string {
	out := make([]string, len(e.ids))
	copy(out, e.ids)
	return out
}
