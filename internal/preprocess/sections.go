package preprocess

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
)

// BodySection is the name used when no section heading was found.
const BodySection = "body"

// DefaultPreferred is the section order used when none is configured.
var DefaultPreferred = []string{"abstract", "introduction", "methods", "results", "discussion", "conclusion"}

type sectionPattern struct {
	name    string
	pattern *regexp.Regexp
}

var sectionPatterns = []sectionPattern{
	{"abstract", regexp.MustCompile(`(?i)\babstract\b`)},
	{"introduction", regexp.MustCompile(`(?i)\b(introduction|background)\b`)},
	{"methods", regexp.MustCompile(`(?i)\b(methods?|methodology|materials? and methods?)\b`)},
	{"experiments", regexp.MustCompile(`(?i)\b(experiments?|experimental setup)\b`)},
	{"evaluation", regexp.MustCompile(`(?i)\b(evaluation|metrics?)\b`)},
	{"results", regexp.MustCompile(`(?i)\bresults?\b`)},
	{"discussion", regexp.MustCompile(`(?i)\bdiscussion(s| and results)?\b`)},
	{"conclusion", regexp.MustCompile(`(?i)\b(conclusion|conclusions|concluding remarks|summary)\b`)},
	{"related", regexp.MustCompile(`(?i)\brelated work\b`)},
	{"limitations", regexp.MustCompile(`(?i)\blimitations?\b`)},
}

// numericHeadingPattern matches headings such as "1 Introduction" or "2.1 Methods".
var numericHeadingPattern = regexp.MustCompile(`(?im)^\s*(?:\d+(?:\.\d+){0,2})\s+` +
	`(abstract|introduction|background|methods?|methodology|materials? and methods?|` +
	`experiments?|experimental setup|evaluation|metrics?|results?|discussion(?:s| and results)?|` +
	`conclusion|conclusions|concluding remarks|summary|related work|limitations?)\b`)

// Section is a named chunk of a document.
type Section struct {
	Name string
	Text string
}

// Sections keeps sections in order of first appearance.
type Sections []Section

// Get returns the text of the named section.
func (sections Sections) Get(name string) (string, bool) {
	for _, section := range sections {
		if section.Name == name {
			return section.Text, true
		}
	}
	return "", false
}

// SectionUsage is the number of characters taken from one section.
type SectionUsage struct {
	Section string `json:"section"`
	Chars   int    `json:"chars"`
}

// Usage lists the sections that went into a context, in selection order.
type Usage []SectionUsage

// Map returns usage keyed by section name.
func (usage Usage) Map() map[string]int {
	result := make(map[string]int, len(usage))
	for _, entry := range usage {
		result[entry.Section] = entry.Chars
	}
	return result
}

// Total is the sum of all used characters.
func (usage Usage) Total() int {
	total := 0
	for _, entry := range usage {
		total += entry.Chars
	}
	return total
}

func (usage *Usage) set(section string, chars int) {
	for index := range *usage {
		if (*usage)[index].Section == section {
			(*usage)[index].Chars = chars
			return
		}
	}
	*usage = append(*usage, SectionUsage{Section: section, Chars: chars})
}

type mark struct {
	position int
	name     string
}

// SplitSections cuts text at every keyword occurrence and numeric heading.
// Matches are deliberately loose: a keyword anywhere in the text starts a new
// chunk. Repeated names are concatenated. Text without any match becomes a
// single "body" section; empty text yields no sections.
func SplitSections(text string) Sections {
	if text == "" {
		return nil
	}

	var marks []mark
	for _, candidate := range sectionPatterns {
		for _, location := range candidate.pattern.FindAllStringIndex(text, -1) {
			marks = append(marks, mark{position: location[0], name: candidate.name})
		}
	}
	for _, match := range numericHeadingPattern.FindAllStringSubmatchIndex(text, -1) {
		marks = append(marks, mark{
			position: match[0],
			name:     strings.ToLower(text[match[2]:match[3]]),
		})
	}

	if len(marks) == 0 {
		return Sections{{Name: BodySection, Text: text}}
	}

	sort.SliceStable(marks, func(left, right int) bool {
		return marks[left].position < marks[right].position
	})

	var sections Sections
	for index, current := range marks {
		end := len(text)
		if index+1 < len(marks) {
			end = marks[index+1].position
		}
		chunk := strings.TrimSpace(text[current.position:end])
		name := canonicalSectionName(current.name)

		merged := false
		for existing := range sections {
			if sections[existing].Name == name {
				sections[existing].Text = strings.TrimSpace(sections[existing].Text + "\n\n" + chunk)
				merged = true
				break
			}
		}
		if !merged {
			sections = append(sections, Section{Name: name, Text: chunk})
		}
	}

	return sections
}

func canonicalSectionName(name string) string {
	switch {
	case strings.Contains(name, "conclusion"):
		return "conclusion"
	case strings.HasPrefix(name, "method"), strings.Contains(name, "materials"):
		return "methods"
	case strings.HasPrefix(name, "result"):
		return "results"
	case strings.HasPrefix(name, "discussion"):
		return "discussion"
	case strings.HasPrefix(name, "background"):
		return "introduction"
	default:
		return name
	}
}

// minParagraphChars is the length a body paragraph needs to be considered
// when no section could be selected.
const minParagraphChars = 80

// SelectSections fills budget characters with the preferred sections first,
// then with the longest remaining ones, cutting each to what is left. When
// nothing could be chosen and the document has only a body, its longest
// paragraphs are used instead.
func SelectSections(sections Sections, preferred []string, budget int) (string, Usage) {
	if len(sections) == 0 {
		return "", Usage{}
	}

	var (
		chosen    []string
		usage     Usage
		remaining = budget
	)

	// take is only called while remaining > 0.
	take := func(name, text string) {
		part := utils.Head(text, remaining)
		chosen = append(chosen, part)
		used := utils.RuneLen(part)
		usage.set(name, used)
		remaining -= used
	}

	for _, name := range preferred {
		if remaining <= 0 {
			break
		}
		text, _ := sections.Get(name)
		if text == "" {
			continue
		}
		take(name, text)
	}

	if remaining > 0 {
		for _, section := range othersByLength(sections, preferred) {
			if remaining <= 0 {
				break
			}
			take(section.Name, section.Text)
		}
	}

	if len(chosen) == 0 {
		if body, ok := sections.Get(BodySection); ok {
			text, used := longestParagraphs(body, budget)
			usage.set(BodySection, used)
			return text, usage
		}
	}

	return strings.TrimSpace(strings.Join(chosen, "\n\n")), usage
}

// othersByLength returns the non-empty sections not in preferred, longest
// first; equal lengths keep document order.
func othersByLength(sections Sections, preferred []string) Sections {
	var others Sections
	for _, section := range sections {
		if section.Text == "" || slices.Contains(preferred, section.Name) {
			continue
		}
		others = append(others, section)
	}
	sort.SliceStable(others, func(left, right int) bool {
		return utils.RuneLen(others[left].Text) > utils.RuneLen(others[right].Text)
	})
	return others
}

func longestParagraphs(body string, budget int) (string, int) {
	var paragraphs []string
	for _, paragraph := range strings.Split(body, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if utils.RuneLen(paragraph) > minParagraphChars {
			paragraphs = append(paragraphs, paragraph)
		}
	}
	sort.SliceStable(paragraphs, func(left, right int) bool {
		return utils.RuneLen(paragraphs[left]) > utils.RuneLen(paragraphs[right])
	})

	var kept []string
	used := 0
	for _, paragraph := range paragraphs {
		length := utils.RuneLen(paragraph)
		if used+length > budget {
			break
		}
		kept = append(kept, paragraph)
		used += length
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n")), used
}
