// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

import "fmt"

// Config contains serving parameters for the recommendation service.
type Config struct {
	// DefaultN is used when a caller asks for fewer than one item.
	DefaultN int `json:"default_n"`

	// MaxN caps the number of items per response.
	MaxN int `json:"max_n"`

	// FilterAlreadyLiked removes items the user already interacted with
	// from personalized results.
	FilterAlreadyLiked bool `json:"filter_already_liked"`
}

// DefaultConfig returns default serving configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultN:           10,
		MaxN:               100,
		FilterAlreadyLiked: true,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DefaultN < 1 {
		return fmt.Errorf("default_n must be positive, got %d", c.DefaultN)
	}
	if c.MaxN < c.DefaultN {
		return fmt.Errorf("max_n must be >= default_n, got %d < %d", c.MaxN, c.DefaultN)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// clampN maps a requested count into [1, MaxN].
func (c *Config) clampN(n int) int {
	if n < 1 {
		return c.DefaultN
	}
	if n > c.MaxN {
		return c.MaxN
	}
	return n
}
