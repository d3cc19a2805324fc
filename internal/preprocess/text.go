package preprocess

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
)

var (
	hyphenBreakPattern = regexp.MustCompile(`(\w)-\s*\n\s*(\w)`)
	spaceRunPattern    = regexp.MustCompile(`[ \t]+`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)

	abstractLinePattern   = regexp.MustCompile(`^(abstract|ABSTRACT)$`)
	contactPattern        = regexp.MustCompile(`(?i)@|orcid\.org|https?://`)
	boilerplatePattern    = regexp.MustCompile(`(?i)(?:university|institute|faculty|department|school of|affiliation|corresponding author|preprint|arxiv|doi|copyright|acknowledg(e)?ments?)`)
	authorLinePattern     = regexp.MustCompile(`^[A-Z][a-z]+(?: [A-Z]\.)?(?: [A-Z][a-z]+)+(?:, [A-Z][a-z]+.*)*$`)
	venueHeaderPattern    = regexp.MustCompile(`(?i)(proceedings of|iclr|neurips|icml|acl|emnlp)\b`)
	referencesHeadPattern = regexp.MustCompile(`(?i)\n\s*(references|bibliography)\s*\n`)
)

// metaHeadLines is how many leading lines StripMetaHead inspects.
const metaHeadLines = 200

// minReferencesTail is the amount of text that must follow a references header
// before it is cut; an earlier match is more likely a table of contents.
const minReferencesTail = 800

// Normalize applies light cleanup for text extracted from PDFs: hyphenated line
// breaks are joined, runs of spaces collapsed, trailing whitespace removed and
// more than one blank line squeezed to one.
func Normalize(text string) string {
	text = hyphenBreakPattern.ReplaceAllString(text, "$1$2")
	text = spaceRunPattern.ReplaceAllString(text, " ")

	lines := splitLines(text)
	for index, line := range lines {
		lines[index] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	text = strings.Join(lines, "\n")

	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Truncate returns at most maxChars characters of text. Zero or a negative
// limit disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	return utils.Head(text, maxChars)
}

// StripMetaHead removes front matter (authors, contact lines, affiliations,
// banners, venue headers) from the first lines of a paper. Lines past the
// inspected head are kept as they are. A bare "abstract" heading survives as
// "Abstract".
func StripMetaHead(text string) string {
	lines := splitLines(text)

	head := lines
	var tail []string
	if len(lines) > metaHeadLines {
		head, tail = lines[:metaHeadLines], lines[metaHeadLines:]
	}

	cleaned := make([]string, 0, len(lines))
	for _, line := range head {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case abstractLinePattern.MatchString(trimmed):
			cleaned = append(cleaned, "Abstract")
			continue
		case contactPattern.MatchString(trimmed),
			boilerplatePattern.MatchString(trimmed),
			isBanner(trimmed),
			authorLinePattern.MatchString(trimmed),
			venueHeaderPattern.MatchString(trimmed):
			continue
		}
		cleaned = append(cleaned, line)
	}
	cleaned = append(cleaned, tail...)

	return Normalize(strings.Join(cleaned, "\n"))
}

// StripReferencesTail drops everything from a References or Bibliography
// header onwards, but only when enough text follows the header.
func StripReferencesTail(text string) string {
	location := referencesHeadPattern.FindStringIndex(text)
	if location == nil {
		return text
	}
	if utils.RuneLen(text[location[0]:]) > minReferencesTail {
		return strings.TrimRightFunc(text[:location[0]], unicode.IsSpace)
	}
	return text
}

// Clean runs Normalize, StripMetaHead and StripReferencesTail in order.
func Clean(text string) string {
	return StripReferencesTail(StripMetaHead(Normalize(text)))
}

// isBanner reports all-caps lines longer than six characters. A line counts as
// upper case when it has at least one cased letter and no lower-case ones.
func isBanner(line string) bool {
	if utils.RuneLen(line) <= 6 {
		return false
	}
	hasUpper := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

// splitLines splits on \n, \r\n and \r without producing a trailing empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
