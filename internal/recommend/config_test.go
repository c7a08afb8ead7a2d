// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DefaultN != 10 {
		t.Errorf("DefaultN = %d, want 10", cfg.DefaultN)
	}
	if cfg.MaxN < cfg.DefaultN {
		t.Errorf("MaxN = %d, want >= DefaultN", cfg.MaxN)
	}
	if !cfg.FilterAlreadyLiked {
		t.Error("FilterAlreadyLiked = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero default_n", func(c *Config) { c.DefaultN = 0 }, true},
		{"max below default", func(c *Config) { c.MaxN = 5 }, true},
		{"max equals default", func(c *Config) { c.MaxN = c.DefaultN }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.MaxN = 7

	if cfg.MaxN == 7 {
		t.Error("modifying clone changed the original")
	}
}

func TestConfig_clampN(t *testing.T) {
	cfg := &Config{DefaultN: 10, MaxN: 50}

	tests := []struct {
		in, want int
	}{
		{-3, 10},
		{0, 10},
		{1, 1},
		{50, 50},
		{51, 50},
	}
	for _, tt := range tests {
		if got := cfg.clampN(tt.in); got != tt.want {
			t.Errorf("clampN(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
