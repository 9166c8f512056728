// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structured

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "unfenced passes through trimmed",
			raw:  "  {\"a\": 1}\n",
			want: `{"a": 1}`,
		},
		{
			name: "plain fence",
			raw:  "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "fence with language tag",
			raw:  "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "trailing prose after closing fence",
			raw:  "```json\n{\"a\": 1}\n```\nHope this helps!",
			want: `{"a": 1}`,
		},
		{
			name: "unterminated fence keeps body",
			raw:  "```json\n{\"a\": 1}",
			want: `{"a": 1}`,
		},
		{
			name: "multiline body preserved",
			raw:  "```json\n{\n  \"a\": 1\n}\n```",
			want: "{\n  \"a\": 1\n}",
		},
		{
			name: "surrounding whitespace before fence",
			raw:  "\n\n```json\n{\"a\": 1}\n```\n\n",
			want: `{"a": 1}`,
		},
		{
			name: "closing fence with trailing spaces",
			raw:  "```json\n{\"a\": 1}\n```  ",
			want: `{"a": 1}`,
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "fence only",
			raw:  "```\n```",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.raw); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
