package processing

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "Bare object",
			input: `{"name": "Beginner Plan"}`,
			want:  `{"name": "Beginner Plan"}`,
		},
		{
			name:  "Bare array",
			input: `[1, 2, 3]`,
			want:  `[1, 2, 3]`,
		},
		{
			name:  "Json fence",
			input: "Here is your plan:\n```json\n{\"name\": \"Beginner Plan\"}\n```\nEnjoy!",
			want:  `{"name": "Beginner Plan"}`,
		},
		{
			name:  "Anonymous fence",
			input: "```\n{\"name\": \"Beginner Plan\"}\n```",
			want:  `{"name": "Beginner Plan"}`,
		},
		{
			name:  "Object buried in prose",
			input: `Sure! The plan {"name": "Beginner Plan", "weeks": 4} should work well.`,
			want:  `{"name": "Beginner Plan", "weeks": 4}`,
		},
		{
			name:  "Nested braces",
			input: `Result: {"plan": {"name": "A", "tags": ["x", "y"]}} done`,
			want:  `{"plan": {"name": "A", "tags": ["x", "y"]}}`,
		},
		{
			name:  "Brace inside string value",
			input: `{"note": "use } sparingly", "n": 1}`,
			want:  `{"note": "use } sparingly", "n": 1}`,
		},
		{
			name:  "Escaped quote inside string",
			input: `{"note": "say \"hi\" first"}`,
			want:  `{"note": "say \"hi\" first"}`,
		},
		{
			name:  "Reasoning block discarded",
			input: "<think>draft: {\"name\": \"wrong\"}</think>{\"name\": \"right\"}",
			want:  `{"name": "right"}`,
		},
		{
			name:  "Whitespace padding",
			input: "  \n {\"a\": 1} \n ",
			want:  `{"a": 1}`,
		},
		{
			name:    "Not JSON at all",
			input:   "This is not JSON {broken",
			wantErr: true,
		},
		{
			name:    "Empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "Unbalanced fence",
			input:   "```json\n{\"a\": 1}",
			wantErr: false,
			// the balanced-region scan still recovers the object
			want: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractJSON(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBalancedRegion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"Simple", `x {"a": 1} y`, `{"a": 1}`, true},
		{"Array", `nums [1, [2, 3]] end`, `[1, [2, 3]]`, true},
		{"Unterminated", `{"a": 1`, "", false},
		{"No region", "plain text", "", false},
		{"String with escape", `{"a": "\\"}`, `{"a": "\\"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := balancedRegion(tt.input)
			if ok != tt.ok {
				t.Fatalf("balancedRegion(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("balancedRegion(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
