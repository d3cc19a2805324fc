package sequential

import (
	"slices"
	"strings"
)

// SectionOrder is the canonical order in which located sections are joined.
var SectionOrder = []string{"abstract", "introduction", "methods", "results", "discussion", "conclusion"}

type sectionMark struct {
	name  string
	start int
}

// ExtractSections locates the first occurrence of every SectionOrder keyword,
// case-insensitively and anywhere in text, and slices text between the
// sorted positions. Keywords that do not occur map to "".
func ExtractSections(text string) map[string]string {
	sections := make(map[string]string, len(SectionOrder))
	lowered := asciiLower(text)

	marks := make([]sectionMark, 0, len(SectionOrder))
	for _, name := range SectionOrder {
		sections[name] = ""
		if index := strings.Index(lowered, name); index >= 0 {
			marks = append(marks, sectionMark{name: name, start: index})
		}
	}
	slices.SortStableFunc(marks, func(a, b sectionMark) int { return a.start - b.start })

	for i, mark := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		sections[mark.name] = strings.TrimSpace(text[mark.start:end])
	}
	return sections
}

// CombineSections joins the non-empty sections in SectionOrder with a blank
// line. Without any section it returns fallback.
func CombineSections(sections map[string]string, fallback string) string {
	parts := make([]string, 0, len(SectionOrder))
	for _, name := range SectionOrder {
		if text := sections[name]; text != "" {
			parts = append(parts, text)
		}
	}
	if combined := strings.TrimSpace(strings.Join(parts, "\n\n")); combined != "" {
		return combined
	}
	return fallback
}

// asciiLower lower-cases ASCII letters only, keeping byte offsets aligned
// with the original text.
func asciiLower(text string) string {
	lowered := []byte(text)
	for i, char := range lowered {
		if 'A' <= char && char <= 'Z' {
			lowered[i] = char + ('a' - 'A')
		}
	}
	return string(lowered)
}
