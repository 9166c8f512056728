// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structured

import "strings"

// StripFences removes a surrounding Markdown code fence from a model
// response. It tolerates the quirks models actually produce: a language
// tag on the opening fence, prose after the closing fence, and responses
// with no fence at all (returned trimmed). The transform is purely
// textual; it never inspects the JSON inside.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	// Drop the opening fence line, language tag and all.
	body := lines[1:]

	// Cut at the closing fence so trailing prose is discarded. An
	// unterminated fence keeps everything after the opening line.
	for i, line := range body {
		if strings.TrimSpace(line) == "```" {
			body = body[:i]
			break
		}
	}

	return strings.TrimSpace(strings.Join(body, "\n"))
}
