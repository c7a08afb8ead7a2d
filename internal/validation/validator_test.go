// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package validation

import (
	"strings"
	"sync"
	"testing"
	"time"
)

type testRequest struct {
	UserID    string `json:"user_id" validate:"required,notblank,max=16"`
	Action    string `json:"action" validate:"required,oneof=view click"`
	Timestamp string `json:"timestamp" validate:"required,isotime"`
	RecID     string `json:"recommendation_id,omitempty" validate:"omitempty,uuid"`
	N         int    `json:"n" validate:"min=1,max=100"`
}

func validRequest() testRequest {
	return testRequest{
		UserID:    "u1",
		Action:    "click",
		Timestamp: "2025-01-02T03:04:05Z",
		N:         10,
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *testRequest)
		wantField string
		wantTag   string
	}{
		{"valid", func(r *testRequest) {}, "", ""},
		{"missing user", func(r *testRequest) { r.UserID = "" }, "user_id", "required"},
		{"blank user", func(r *testRequest) { r.UserID = "   " }, "user_id", "notblank"},
		{"long user", func(r *testRequest) { r.UserID = strings.Repeat("u", 17) }, "user_id", "max"},
		{"bad action", func(r *testRequest) { r.Action = "like" }, "action", "oneof"},
		{"bad timestamp", func(r *testRequest) { r.Timestamp = "yesterday" }, "timestamp", "isotime"},
		{"naive timestamp", func(r *testRequest) { r.Timestamp = "2025-01-02T03:04:05.123456" }, "", ""},
		{"bad uuid", func(r *testRequest) { r.RecID = "not-a-uuid" }, "recommendation_id", "uuid"},
		{"valid uuid", func(r *testRequest) { r.RecID = "2485b082-5258-44c1-b6aa-983387d540a7" }, "", ""},
		{"n too small", func(r *testRequest) { r.N = 0 }, "n", "min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			verr := ValidateStruct(&req)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("got %d field errors, want 1: %v", len(verr.Fields), verr)
			}
			if got := verr.Fields[0]; got.Field != tt.wantField || got.Tag != tt.wantTag {
				t.Errorf("field error = %s/%s, want %s/%s", got.Field, got.Tag, tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	req := testRequest{}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if len(verr.Fields) < 3 {
		t.Errorf("got %d field errors, want at least 3", len(verr.Fields))
	}
	if !strings.Contains(verr.Error(), "user_id is required") {
		t.Errorf("Error() = %q, want to mention user_id", verr.Error())
	}
	if _, ok := verr.Details()["fields"]; !ok {
		t.Error("Details() missing fields key")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-01-02T03:04:05Z", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"2025-01-02T10:04:05+07:00", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"2025-01-02T03:04:05", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"2025-01-02 03:04:05.5", time.Date(2025, 1, 2, 3, 4, 5, 500000000, time.UTC), true},
		{"02/01/2025", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("ParseTimestamp(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			}
			if tt.ok && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	var wg sync.WaitGroup
	seen := make(chan interface{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- GetValidator()
		}()
	}
	wg.Wait()
	close(seen)

	first := GetValidator()
	for v := range seen {
		if v != first {
			t.Fatal("GetValidator() returned different instances")
		}
	}
}
