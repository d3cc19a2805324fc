package preprocess

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(testCase *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hyphenated break", "algo-\nrithm", "algorithm"},
		{"spaces and tabs", "a  \t b", "a b"},
		{"trailing spaces", "line one   \nline two\t", "line one\nline two"},
		{"blank runs", "a\n\n\n\nb", "a\n\nb"},
		{"outer whitespace", "\n\n  text  \n", "text"},
		{"combined", "algo-\nrithm  is   great \n\n\n\nNext", "algorithm is great\n\nNext"},
	}

	for _, test := range tests {
		testCase.Run(test.name, func(subTest *testing.T) {
			if got := Normalize(test.input); got != test.want {
				subTest.Errorf("Normalize(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestTruncate(testCase *testing.T) {
	if got := Truncate("héllo", 3); got != "hél" {
		testCase.Errorf("Truncate counts runes: got %q", got)
	}
	if got := Truncate("short", 0); got != "short" {
		testCase.Errorf("zero limit must not truncate: got %q", got)
	}
	if got := Truncate("short", 100); got != "short" {
		testCase.Errorf("long limit: got %q", got)
	}
}

func TestStripMetaHead(testCase *testing.T) {
	input := strings.Join([]string{
		"Dense retrieval for open QA",
		"Omar Khattab, Matei Zaharia",
		"Stanford University",
		"okhattab@stanford.edu",
		"https://github.com/example",
		"",
		"ABSTRACT",
		"PROCEEDINGS BANNER",
		"Published at ICLR 2025",
		"We study retrieval.",
	}, "\n")

	want := "Dense retrieval for open QA\nAbstract\nWe study retrieval."
	if got := StripMetaHead(input); got != want {
		testCase.Errorf("StripMetaHead() = %q, want %q", got, want)
	}
}

func TestStripMetaHead_KeepsTailVerbatim(testCase *testing.T) {
	lines := make([]string, 0, metaHeadLines+2)
	for range metaHeadLines {
		lines = append(lines, "body line")
	}
	lines = append(lines, "contact me@example.org")

	got := StripMetaHead(strings.Join(lines, "\n"))
	if !strings.HasSuffix(got, "contact me@example.org") {
		testCase.Errorf("lines past the head must be kept, got suffix %q", got[len(got)-30:])
	}
}

func TestStripReferencesTail(testCase *testing.T) {
	longTail := strings.Repeat("[1] Some citation.\n", 60)

	got := StripReferencesTail("Body text.  \nReferences\n" + longTail)
	if got != "Body text." {
		testCase.Errorf("long tail should be cut, got %q", got)
	}

	short := "Body text.\nReferences\n[1] Only one."
	if got := StripReferencesTail(short); got != short {
		testCase.Errorf("short tail must be kept, got %q", got)
	}

	if got := StripReferencesTail("no header here"); got != "no header here" {
		testCase.Errorf("text without header changed: %q", got)
	}
}

func TestSplitSections(testCase *testing.T) {
	text := "Abstract\nWe study X.\n1 Introduction\nIntro text.\n2 Methods\nWe use Y."

	sections := SplitSections(text)

	names := make([]string, 0, len(sections))
	for _, section := range sections {
		names = append(names, section.Name)
	}
	if diff := cmp.Diff([]string{"abstract", "introduction", "methods"}, names); diff != "" {
		testCase.Errorf("section names mismatch (-want +got):\n%s", diff)
	}

	abstract, _ := sections.Get("abstract")
	if abstract != "Abstract\nWe study X." {
		testCase.Errorf("abstract = %q", abstract)
	}
	methods, _ := sections.Get("methods")
	if methods != "2\n\nMethods\nWe use Y." {
		testCase.Errorf("methods = %q", methods)
	}
}

func TestSplitSections_BodyAndEmpty(testCase *testing.T) {
	if got := SplitSections(""); len(got) != 0 {
		testCase.Errorf("empty text should have no sections, got %v", got)
	}

	got := SplitSections("Plain words only.")
	if diff := cmp.Diff(Sections{{Name: BodySection, Text: "Plain words only."}}, got); diff != "" {
		testCase.Errorf("body fallback mismatch (-want +got):\n%s", diff)
	}
}

func TestCanonicalSectionName(testCase *testing.T) {
	tests := map[string]string{
		"conclusions":            "conclusion",
		"concluding remarks":     "conclusion",
		"methodology":            "methods",
		"materials and methods":  "methods",
		"result":                 "results",
		"discussion and results": "discussion",
		"background":             "introduction",
		"summary":                "summary",
		"limitations":            "limitations",
	}
	for input, want := range tests {
		if got := canonicalSectionName(input); got != want {
			testCase.Errorf("canonicalSectionName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSelectSections_PreferredThenLongest(testCase *testing.T) {
	sections := Sections{
		{Name: "abstract", Text: strings.Repeat("a", 10)},
		{Name: "related", Text: strings.Repeat("r", 30)},
		{Name: "limitations", Text: strings.Repeat("l", 20)},
		{Name: "methods", Text: strings.Repeat("m", 10)},
	}

	text, usage := SelectSections(sections, []string{"abstract", "methods"}, 35)

	wantUsage := Usage{
		{Section: "abstract", Chars: 10},
		{Section: "methods", Chars: 10},
		{Section: "related", Chars: 15},
	}
	if diff := cmp.Diff(wantUsage, usage); diff != "" {
		testCase.Errorf("usage mismatch (-want +got):\n%s", diff)
	}
	wantText := strings.Repeat("a", 10) + "\n\n" + strings.Repeat("m", 10) + "\n\n" + strings.Repeat("r", 15)
	if text != wantText {
		testCase.Errorf("text = %q", text)
	}
	if usage.Total() != 35 || usage.Map()["related"] != 15 {
		testCase.Errorf("Total/Map mismatch: %d %v", usage.Total(), usage.Map())
	}
}

func TestLongestParagraphs(testCase *testing.T) {
	body := strings.Join([]string{
		strings.Repeat("b", 90),
		strings.Repeat("s", 50),
		strings.Repeat("a", 100),
	}, "\n\n")

	text, used := longestParagraphs(body, 200)
	if used != 190 || text != strings.Repeat("a", 100)+"\n\n"+strings.Repeat("b", 90) {
		testCase.Errorf("budget 200: used=%d text=%q", used, text)
	}

	_, used = longestParagraphs(body, 150)
	if used != 100 {
		testCase.Errorf("budget 150: used=%d, want 100", used)
	}
}

func TestBuild_SectionsDisabledTruncates(testCase *testing.T) {
	options := DefaultOptions()
	options.SectionsEnabled = false
	options.BudgetChars = 5

	if got := Build("abcdefghij", options); got != "abcde" {
		testCase.Errorf("Build() = %q, want %q", got, "abcde")
	}
}

func TestBuild_ShortTextFallsBackToCleanText(testCase *testing.T) {
	got := Build("Hello   world.", DefaultOptions())
	if got != "Hello world." {
		testCase.Errorf("Build() = %q, want clean text", got)
	}
}

func TestBuild_SelectsSections(testCase *testing.T) {
	options := DefaultOptions()
	options.MinAnalysisChars = 10
	options.BudgetChars = 1000

	got := Build("Abstract\nWe study X.\n1 Introduction\nIntro text.", options)
	if !strings.HasPrefix(got, "Abstract\nWe study X.") || !strings.Contains(got, "Intro text.") {
		testCase.Errorf("unexpected context: %q", got)
	}
}

func TestPreview(testCase *testing.T) {
	options := DefaultOptions()
	options.SectionsEnabled = false
	options.BudgetChars = 4

	if diff := cmp.Diff(Usage{{Section: BodySection, Chars: 4}}, Preview("abcdefgh", options)); diff != "" {
		testCase.Errorf("disabled preview mismatch (-want +got):\n%s", diff)
	}

	options = DefaultOptions()
	usage := Preview("Abstract\nWe study X.\n1 Introduction\nIntro text.", options)
	if usage.Map()["abstract"] != len("Abstract\nWe study X.") {
		testCase.Errorf("abstract usage = %d", usage.Map()["abstract"])
	}
}
