package client

import (
	"testing"
)

func TestDecodePage(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError bool
		wantNumber  int
		wantTotal   int
		wantPages   int
		wantResults string
	}{
		{
			name:        "full envelope",
			body:        `{"page":2,"total_results":45,"total_pages":3,"results":[{"id":21}]}`,
			wantNumber:  2,
			wantTotal:   45,
			wantPages:   3,
			wantResults: `[{"id":21}]`,
		},
		{
			name:        "null results",
			body:        `{"page":1,"total_results":0,"total_pages":0,"results":null}`,
			wantNumber:  1,
			wantResults: `[]`,
		},
		{
			name:        "missing results",
			body:        `{"page":1,"total_results":0,"total_pages":0}`,
			wantNumber:  1,
			wantResults: `[]`,
		},
		{
			name:        "not json",
			body:        `<html></html>`,
			expectError: true,
		},
		{
			name:        "negative totals",
			body:        `{"page":1,"total_results":-1,"total_pages":0,"results":[]}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := decodePage([]byte(tt.body))
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if page.Number != tt.wantNumber {
				t.Errorf("Number = %d, want %d", page.Number, tt.wantNumber)
			}
			if page.TotalResults != tt.wantTotal {
				t.Errorf("TotalResults = %d, want %d", page.TotalResults, tt.wantTotal)
			}
			if page.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", page.TotalPages, tt.wantPages)
			}
			if string(page.Results) != tt.wantResults {
				t.Errorf("Results = %s, want %s", page.Results, tt.wantResults)
			}
		})
	}
}
