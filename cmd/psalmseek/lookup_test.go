package main

import "testing"

func TestParseReference(t *testing.T) {
	tests := []struct {
		ref        string
		psalm      int
		start, end int
		wantErr    bool
	}{
		{ref: "23", psalm: 23},
		{ref: "119:1-8", psalm: 119, start: 1, end: 8},
		{ref: "46:10", psalm: 46, start: 10, end: 10},
		{ref: " 23 ", psalm: 23},
		{ref: "1:3-3", psalm: 1, start: 3, end: 3},
		{ref: "", wantErr: true},
		{ref: "abc", wantErr: true},
		{ref: "0", wantErr: true},
		{ref: "-5", wantErr: true},
		{ref: "23:", wantErr: true},
		{ref: "23:0", wantErr: true},
		{ref: "23:x-4", wantErr: true},
		{ref: "23:4-x", wantErr: true},
		{ref: "23:8-4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			psalm, start, end, err := parseReference(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseReference(%q) succeeded, want error", tt.ref)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseReference(%q) failed: %v", tt.ref, err)
			}
			if psalm != tt.psalm || start != tt.start || end != tt.end {
				t.Errorf("parseReference(%q) = %d, %d, %d, want %d, %d, %d",
					tt.ref, psalm, start, end, tt.psalm, tt.start, tt.end)
			}
		})
	}
}
