package analysis

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/MerlinChiodo/multi-agent-orchestration/core/parse"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
)

const (
	// ShortCap and UltraShortCap are the translator's character caps.
	ShortCap      = 120
	UltraShortCap = 80

	// MaxKeywords is the number of keywords the keyword node keeps.
	MaxKeywords = 6

	// ShortSummaryChars is the summary length below which the quality node
	// is skipped.
	ShortSummaryChars = 100

	// ReworkThreshold is the critic score below which the summary is redone.
	ReworkThreshold = 0.5

	ellipsis = "…"
)

var (
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9\s]`)
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// QualityF1 is the unigram F1 of summary against notes. Both texts are
// lower-cased, stripped of everything but [a-z0-9] and whitespace, and
// reduced to the set of tokens longer than two characters. Either set being
// empty gives 0.
func QualityF1(notes, summary string) float64 {
	gold := tokenSet(notes)
	predicted := tokenSet(summary)
	if len(gold) == 0 || len(predicted) == 0 {
		return 0
	}

	overlap := 0
	for token := range predicted {
		if _, ok := gold[token]; ok {
			overlap++
		}
	}
	precision := float64(overlap) / float64(len(predicted))
	recall := float64(overlap) / float64(len(gold))
	if precision+recall == 0 {
		return 0
	}
	return utils.Round(2*precision*recall/(precision+recall), 3)
}

func tokenSet(text string) map[string]struct{} {
	cleaned := nonAlnumPattern.ReplaceAllString(strings.ToLower(text), " ")
	set := make(map[string]struct{})
	for _, token := range strings.Fields(cleaned) {
		if len(token) > 2 {
			set[token] = struct{}{}
		}
	}
	return set
}

// NormalizeCriticScore maps a raw critic number onto [0,1]: values above 1
// are read as a 0-5 rating and divided by 5, then the result is clamped and
// rounded to three decimals.
func NormalizeCriticScore(raw float64) float64 {
	if raw > 1 {
		raw /= 5
	}
	return utils.Round(clamp(raw, 0, 1), 3)
}

// CriticScore extracts the first number of the critique. Without one it
// falls back to the quality F1.
func CriticScore(critic string, qualityF1 float64) float64 {
	raw, ok := parse.FirstDecimal(critic)
	if !ok {
		raw = qualityF1
	}
	return NormalizeCriticScore(raw)
}

// JudgeScore reads the first integer of the judge's reply, clamped to [0,5]
// and rounded to two decimals. No integer gives 0.
func JudgeScore(reply string) float64 {
	score, ok := parse.FirstInt(reply)
	if !ok {
		return 0
	}
	return utils.Round(clamp(float64(score), 0, 5), 2)
}

// Aggregate averages the strictly positive signals among the quality F1,
// the judge score scaled to [0,1] and the critic score. A signal that is 0
// usually belongs to a skipped node and is left out. No positive signal
// gives 0.
func Aggregate(qualityF1, judgeScore, criticScore float64) float64 {
	var sum float64
	var count int
	for _, value := range []float64{qualityF1, judgeScore / 5, criticScore} {
		if value > 0 {
			sum += value
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return utils.Round(sum/float64(count), 3)
}

// Translate produces the tagged, length-capped rendition of summary. The
// text is cut to the style's cap, trimmed and prefixed with "[LANG] ". Only a
// cut summary gets the trailing ellipsis.
func Translate(summary, language, style string) string {
	language = strings.ToUpper(strings.TrimSpace(language))
	if language == "" {
		language = "DE"
	}

	length := utf8.RuneCountInString(summary)
	limit := length
	switch style {
	case "short":
		limit = min(ShortCap, length)
	case "ultra_short":
		limit = min(UltraShortCap, length)
	}

	cut := limit < length
	truncated := summary
	if cut {
		truncated = utils.Head(summary, limit)
	}
	truncated = strings.TrimSpace(truncated)

	translation := "[" + language + "] " + truncated
	if cut {
		translation += ellipsis
	}
	return translation
}

// Keywords returns the MaxKeywords most frequent lower-cased words of text
// longer than three characters, joined with ", ". Ties keep the order of
// first appearance.
func Keywords(text string) string {
	counts := make(map[string]int)
	var order []string
	for _, token := range wordPattern.FindAllString(text, -1) {
		token = strings.ToLower(token)
		if utf8.RuneCountInString(token) <= 3 {
			continue
		}
		if counts[token] == 0 {
			order = append(order, token)
		}
		counts[token]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})
	if len(order) > MaxKeywords {
		order = order[:MaxKeywords]
	}
	return strings.Join(order, ", ")
}

func clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}
