// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

import (
	"errors"
	"math"
	"testing"
)

func TestNewInteractionMatrix(t *testing.T) {
	entries := []MatrixEntry{
		{User: 1, Item: 2, Value: 3},
		{User: 0, Item: 1, Value: 1},
		{User: 1, Item: 0, Value: 2},
		{User: 1, Item: 2, Value: 4},
	}

	m, err := NewInteractionMatrix(2, 3, entries)
	if err != nil {
		t.Fatalf("NewInteractionMatrix() error = %v", err)
	}

	rows, cols := m.Shape()
	if rows != 2 || cols != 3 {
		t.Errorf("Shape() = (%d, %d), want (2, 3)", rows, cols)
	}
	if m.NNZ() != 3 {
		t.Errorf("NNZ() = %d, want 3", m.NNZ())
	}
	if got := m.Value(1, 2); got != 7 {
		t.Errorf("Value(1, 2) = %v, want 7 (duplicates summed)", got)
	}
	if got := m.Value(0, 0); got != 0 {
		t.Errorf("Value(0, 0) = %v, want 0", got)
	}

	row := m.Row(1)
	if len(row) != 2 || row[0].Item != 0 || row[1].Item != 2 {
		t.Errorf("Row(1) = %+v, want items [0 2]", row)
	}
	if got := m.Row(5); len(got) != 0 {
		t.Errorf("Row(5) = %+v, want empty", got)
	}
}

func TestNewInteractionMatrix_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		entries []MatrixEntry
	}{
		{"user out of range", []MatrixEntry{{User: 2, Item: 0, Value: 1}}},
		{"item out of range", []MatrixEntry{{User: 0, Item: 3, Value: 1}}},
		{"negative index", []MatrixEntry{{User: -1, Item: 0, Value: 1}}},
		{"negative value", []MatrixEntry{{User: 0, Item: 0, Value: -1}}},
		{"nan value", []MatrixEntry{{User: 0, Item: 0, Value: math.NaN()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInteractionMatrix(2, 3, tt.entries)
			if !errors.Is(err, ErrInvalidMatrix) {
				t.Errorf("NewInteractionMatrix() error = %v, want ErrInvalidMatrix", err)
			}
		})
	}
}

func TestInteractionMatrix_WithEntries(t *testing.T) {
	m, err := NewInteractionMatrix(2, 2, []MatrixEntry{{User: 0, Item: 0, Value: 1}})
	if err != nil {
		t.Fatalf("NewInteractionMatrix() error = %v", err)
	}

	next, err := m.WithEntries([]MatrixEntry{
		{User: 0, Item: 0, Value: 2},
		{User: 1, Item: 1, Value: 5},
	})
	if err != nil {
		t.Fatalf("WithEntries() error = %v", err)
	}

	if got := next.Value(0, 0); got != 3 {
		t.Errorf("next.Value(0, 0) = %v, want 3", got)
	}
	if got := next.Value(1, 1); got != 5 {
		t.Errorf("next.Value(1, 1) = %v, want 5", got)
	}
	if got := m.Value(0, 0); got != 1 {
		t.Errorf("original Value(0, 0) = %v, want 1 (unchanged)", got)
	}
	if m.NNZ() != 1 {
		t.Errorf("original NNZ() = %d, want 1", m.NNZ())
	}
}
