// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

import (
	"fmt"
	"math"
	"sort"
)

// InteractionMatrix is a read-only sparse users x items matrix in CSR layout.
// Absent cells are zero. Values are non-negative.
type InteractionMatrix struct {
	rows    int
	cols    int
	indptr  []int
	indices []int
	values  []float64
}

// NewInteractionMatrix builds a CSR matrix from coordinate entries.
// Duplicate coordinates are summed. Zero-valued cells are dropped.
func NewInteractionMatrix(rows, cols int, entries []MatrixEntry) (*InteractionMatrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative shape (%d, %d)", ErrInvalidMatrix, rows, cols)
	}

	cells := make(map[[2]int]float64, len(entries))
	for _, e := range entries {
		if e.User < 0 || e.User >= rows || e.Item < 0 || e.Item >= cols {
			return nil, fmt.Errorf("%w: entry (%d, %d) outside shape (%d, %d)",
				ErrInvalidMatrix, e.User, e.Item, rows, cols)
		}
		if e.Value < 0 || math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return nil, fmt.Errorf("%w: entry (%d, %d) has value %v", ErrInvalidMatrix, e.User, e.Item, e.Value)
		}
		cells[[2]int{e.User, e.Item}] += e.Value
	}

	keys := make([][2]int, 0, len(cells))
	for k, v := range cells {
		if v == 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	m := &InteractionMatrix{
		rows:    rows,
		cols:    cols,
		indptr:  make([]int, rows+1),
		indices: make([]int, len(keys)),
		values:  make([]float64, len(keys)),
	}
	for n, k := range keys {
		m.indptr[k[0]+1]++
		m.indices[n] = k[1]
		m.values[n] = cells[k]
	}
	for r := 0; r < rows; r++ {
		m.indptr[r+1] += m.indptr[r]
	}

	return m, nil
}

// Shape returns (users, items).
func (m *InteractionMatrix) Shape() (rows, cols int) {
	return m.rows, m.cols
}

// NNZ returns the number of stored cells.
func (m *InteractionMatrix) NNZ() int {
	return len(m.values)
}

// Row returns the non-zero cells of user u ordered by item index.
// An out-of-range row is empty.
func (m *InteractionMatrix) Row(u int) []MatrixEntry {
	if u < 0 || u >= m.rows {
		return nil
	}
	start, end := m.indptr[u], m.indptr[u+1]
	out := make([]MatrixEntry, 0, end-start)
	for n := start; n < end; n++ {
		out = append(out, MatrixEntry{User: u, Item: m.indices[n], Value: m.values[n]})
	}
	return out
}

// Value returns the cell (u, i), zero when absent.
func (m *InteractionMatrix) Value(u, i int) float64 {
	if u < 0 || u >= m.rows {
		return 0
	}
	start, end := m.indptr[u], m.indptr[u+1]
	n := sort.SearchInts(m.indices[start:end], i)
	if start+n < end && m.indices[start+n] == i {
		return m.values[start+n]
	}
	return 0
}

// Entries returns all non-zero cells in row-major order.
func (m *InteractionMatrix) Entries() []MatrixEntry {
	out := make([]MatrixEntry, 0, len(m.values))
	for u := 0; u < m.rows; u++ {
		out = append(out, m.Row(u)...)
	}
	return out
}

// WithEntries returns a new matrix holding the sum of m and the given entries.
// m is not modified.
func (m *InteractionMatrix) WithEntries(entries []MatrixEntry) (*InteractionMatrix, error) {
	all := make([]MatrixEntry, 0, m.NNZ()+len(entries))
	all = append(all, m.Entries()...)
	all = append(all, entries...)
	return NewInteractionMatrix(m.rows, m.cols, all)
}
