// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agoradev/lawgraph/pkg/types"
)

var (
	// isolatedNumberRe finds standalone gazette registration numbers,
	// printed near the end of the document text.
	isolatedNumberRe = regexp.MustCompile(`\b(\d{6,})\b`)

	// titleNumberRe finds a law number ("41/2023", "41-2023", with an
	// optional series letter) or a long plain number in a title.
	titleNumberRe = regexp.MustCompile(`\d+[-/]\d{4}(?:-[A-Z])?|\d{4,}`)

	// docNumberRe finds "<type> n.º <number>" in document text.
	docNumberRe = regexp.MustCompile(`(Decreto-Lei|Lei|Portaria|Despacho|Resolução|Decreto|Aviso|Deliberação|Regulamento|Acórdão)[^\d]{0,20}n\.?º?\s*(\d+[-/]\d{4}(?:-[A-Z])?)`)

	slugStripRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugCollapseRe = regexp.MustCompile(`[-\s]+`)

	firstIntRe = regexp.MustCompile(`\d+`)

	titleNoiseRe = regexp.MustCompile(`[#$@&*]`)
)

// officialNumber picks the best available gazette number for a source.
// The bool is false when every heuristic failed and the number had to be
// derived from the source id.
func officialNumber(sourceID, ptTitle, typeID string, meta types.LawMetadata, chunks []types.DocumentChunk) (string, bool) {
	if len(chunks) > 0 {
		if num := longestIsolatedNumber(chunks[len(chunks)-1].Content); num != "" {
			return num, true
		}
	}
	if ptTitle != "" {
		if num := titleNumberRe.FindString(ptTitle); num != "" {
			return composeNumber(typeNameOrDefault(typeID), num), true
		}
	}
	if meta.OfficialNumber != "" {
		name := meta.Type
		if name == "" {
			name = typeNameOrDefault(typeID)
		}
		return composeNumber(name, meta.OfficialNumber), true
	}
	if len(chunks) > 0 {
		if m := docNumberRe.FindStringSubmatch(chunks[0].Content); m != nil {
			return composeNumber(m[1], m[2]), true
		}
	}
	id := sourceID
	if len(id) > 8 {
		id = id[:8]
	}
	return id, false
}

// longestIsolatedNumber returns the longest run of six or more digits in
// the text, the first one when lengths tie.
func longestIsolatedNumber(text string) string {
	best := ""
	for _, m := range isolatedNumberRe.FindAllString(text, -1) {
		if len(m) > len(best) {
			best = m
		}
	}
	return best
}

func composeNumber(typeName, num string) string {
	return fmt.Sprintf("%s nº %s", typeName, num)
}

func typeNameOrDefault(typeID string) string {
	if name, ok := TypeName(typeID); ok {
		return name
	}
	return "Lei"
}

// slugify derives the law's URL slug from its official number. A random
// suffix keeps re-ingested laws distinct from rows kept for audit.
func slugify(number string) string {
	s := strings.ToLower(number)
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if s == "" {
		return suffix
	}
	return s + "-" + suffix
}

// cleanTitle strips markup noise from a source title.
func cleanTitle(title string) string {
	t := strings.TrimSpace(titleNoiseRe.ReplaceAllString(title, ""))
	if t == "" {
		return "Untitled Law"
	}
	return t
}

// firstInt extracts the first integer from an article designator such as
// "Artigo 5.º". Returns 0 when there is none.
func firstInt(s string) int {
	m := firstIntRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// lastPathSegment takes the final path element of a URL, which for law
// pages is the slug.
func lastPathSegment(rawURL string) string {
	s := rawURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if s == "" {
		return ""
	}
	return path.Base(s)
}

// previousDay returns the day before a DateLayout date, or "" when the
// date does not parse.
func previousDay(date string) string {
	t, err := time.Parse(types.DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(types.DateLayout)
}
