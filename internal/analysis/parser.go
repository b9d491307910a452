package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

const defaultReasoning = "AI analysis completed."

var (
	labelPatterns = compileLabelPatterns()

	// nextLabel marks the start of the following answer field: an
	// UPPERCASE_TOKEN or one of our labels in any case. "Note:" is prose.
	nextLabel = compileNextLabel()

	suitabilityPattern = regexp.MustCompile(`(?i)\b(EXCELLENT|GOOD|MODERATE|POOR|AVOID)\b`)
	digitsPattern      = regexp.MustCompile(`\d+`)
)

func compileLabelPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(ResponseLabels))
	for _, label := range ResponseLabels {
		patterns[label] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[ \t]*:`)
	}
	return patterns
}

func compileNextLabel() *regexp.Regexp {
	quoted := make([]string, 0, len(ResponseLabels))
	for _, label := range ResponseLabels {
		quoted = append(quoted, regexp.QuoteMeta(label))
	}
	return regexp.MustCompile(`\n[ \t]*(?:[A-Z][A-Z_]*|(?i:` + strings.Join(quoted, "|") + `))[ \t]*:`)
}

// ParseRecommendation turns a model reply into a Recommendation. Missing or
// malformed fields fall back to defaults; only a blank reply is an error.
func ParseRecommendation(raw string, requestedPortion, dailyCalorieNeed float64) (*Recommendation, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, newParseError(raw, "empty reply")
	}

	rec := &Recommendation{
		PortionGrams:            requestedPortion,
		Suitability:             SuitabilityModerate,
		RecommendedPortionGrams: requestedPortion,
		Reasoning:               defaultReasoning,
		Benefits:                []string{},
		Warnings:                []string{},
	}

	if span, ok := extractField(raw, LabelSuitability); ok {
		if m := suitabilityPattern.FindString(span); m != "" {
			rec.Suitability = Suitability(strings.ToUpper(m))
		}
	}
	rec.Suitable = rec.Suitability.Suitable()

	if span, ok := extractField(raw, LabelRecommendedPortion); ok {
		if m := digitsPattern.FindString(span); m != "" {
			if v, err := strconv.ParseFloat(m, 64); err == nil {
				rec.RecommendedPortionGrams = v
			}
		}
	}

	if span, ok := extractField(raw, LabelBenefits); ok {
		rec.Benefits = splitList(span)
	}

	if span, ok := extractField(raw, LabelWarnings); ok && !strings.EqualFold(span, "none") {
		rec.Warnings = splitList(span)
	}

	if span, ok := extractField(raw, LabelReasoning); ok {
		rec.Reasoning = span
	}

	rec.PercentOfDailyCalories = estimatePercentOfDailyCalories(requestedPortion, dailyCalorieNeed)

	return rec, nil
}

// extractField returns the trimmed text after label up to the next label line
// or the end of raw. Empty spans count as missing.
func extractField(raw, label string) (string, bool) {
	loc := labelPatterns[label].FindStringIndex(raw)
	if loc == nil {
		return "", false
	}
	rest := raw[loc[1]:]
	if end := nextLabel.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	span := strings.TrimSpace(rest)
	return span, span != ""
}

func splitList(span string) []string {
	parts := strings.Split(span, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// estimatePercentOfDailyCalories assumes a flat 2 kcal per gram.
func estimatePercentOfDailyCalories(portionGrams, dailyCalorieNeed float64) float64 {
	if dailyCalorieNeed <= 0 {
		return 0
	}
	return portionGrams * 2 / dailyCalorieNeed * 100
}
