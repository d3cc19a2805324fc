package preprocess

import (
	"strings"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
)

// DefaultBudgetChars is the section budget when neither a budget nor a
// truncation limit is configured.
const DefaultBudgetChars = 2400

// DefaultMinAnalysisChars is the context length below which auto-expansion
// kicks in.
const DefaultMinAnalysisChars = 800

// Options controls how an analysis context is assembled.
type Options struct {
	SectionsEnabled   bool
	BudgetChars       int
	Preferred         []string
	AutoExpandIfShort bool
	MinAnalysisChars  int
}

// DefaultOptions returns sectioning on, the default budget and preference
// order, and auto-expansion below DefaultMinAnalysisChars.
func DefaultOptions() Options {
	return Options{
		SectionsEnabled:   true,
		BudgetChars:       DefaultBudgetChars,
		Preferred:         append([]string(nil), DefaultPreferred...),
		AutoExpandIfShort: true,
		MinAnalysisChars:  DefaultMinAnalysisChars,
	}
}

func (options Options) preferred() []string {
	if len(options.Preferred) == 0 {
		return DefaultPreferred
	}
	return options.Preferred
}

// Build turns raw document text into the context handed to the reader:
//
//  1. clean the text (normalize, strip front matter, cut references)
//  2. without sectioning, truncate to the budget
//  3. otherwise select sections within the budget
//  4. if the result is shorter than MinAnalysisChars and auto-expansion is on,
//     append non-preferred sections, and if still too short fall back to the
//     truncated clean text
func Build(raw string, options Options) string {
	cleaned := Clean(raw)
	budget := options.BudgetChars

	if !options.SectionsEnabled {
		return Truncate(cleaned, budget)
	}

	sections := SplitSections(cleaned)
	preferred := options.preferred()
	analysisContext, _ := SelectSections(sections, preferred, budget)

	if !options.AutoExpandIfShort || utils.RuneLen(analysisContext) >= options.MinAnalysisChars {
		return analysisContext
	}

	if len(sections) > 0 {
		remaining := budget - utils.RuneLen(analysisContext)
		var extra []string
		if remaining > 0 {
			for _, section := range othersByLength(sections, preferred) {
				if remaining <= 0 {
					break
				}
				if part := utils.Head(section.Text, remaining); part != "" {
					extra = append(extra, part)
					remaining -= utils.RuneLen(part)
				}
			}
		}
		if len(extra) > 0 {
			separator := ""
			if analysisContext != "" {
				separator = "\n\n"
			}
			analysisContext = strings.TrimSpace(analysisContext + separator + strings.Join(extra, "\n\n"))
		}
	}

	if utils.RuneLen(analysisContext) < options.MinAnalysisChars {
		analysisContext = Truncate(cleaned, budget)
	}

	return analysisContext
}

// Preview reports how many characters of each section Build would select. With
// sectioning disabled the whole clean text counts as body, capped at the
// budget.
func Preview(raw string, options Options) Usage {
	cleaned := Clean(raw)

	if !options.SectionsEnabled {
		return Usage{{Section: BodySection, Chars: min(utils.RuneLen(cleaned), options.BudgetChars)}}
	}

	_, usage := SelectSections(SplitSections(cleaned), options.preferred(), options.BudgetChars)
	return usage
}
