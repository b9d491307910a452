package ai

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MockClient answers prompts locally without a network call. It reads the
// requested answer labels from the prompt and fills them by keyword.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

var (
	mockFoodLine    = regexp.MustCompile(`(?m)^- Food: (.+)$`)
	mockPortionLine = regexp.MustCompile(`(?m)^- Portion Size: ([0-9.]+) grams$`)
	mockFormatLine  = regexp.MustCompile(`^([A-Z_]+): \[`)
)

type mockVerdict struct {
	score    string
	factor   float64
	benefits []string
	warnings []string
	reason   string
}

func (p *MockClient) Generate(ctx context.Context, prompt, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	food := "food"
	if m := mockFoodLine.FindStringSubmatch(prompt); m != nil {
		food = strings.TrimSpace(m[1])
	}
	portion := 100.0
	if m := mockPortionLine.FindStringSubmatch(prompt); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			portion = v
		}
	}

	v := judgeFood(food)
	recommended := int(portion * v.factor)
	if recommended < 1 {
		recommended = 1
	}

	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(prompt))
	for scanner.Scan() {
		m := mockFormatLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		label := m[1]
		switch label {
		case "SUITABILITY":
			fmt.Fprintf(&b, "%s: %s\n", label, v.score)
		case "RECOMMENDED_PORTION":
			fmt.Fprintf(&b, "%s: %d\n", label, recommended)
		case "BENEFITS":
			fmt.Fprintf(&b, "%s: %s\n", label, strings.Join(v.benefits, "; "))
		case "WARNINGS":
			if len(v.warnings) == 0 {
				fmt.Fprintf(&b, "%s: None\n", label)
			} else {
				fmt.Fprintf(&b, "%s: %s\n", label, strings.Join(v.warnings, "; "))
			}
		case "REASONING":
			fmt.Fprintf(&b, "%s: %s (demo mode, not medical advice)\n", label, fmt.Sprintf(v.reason, food))
		default:
			fmt.Fprintf(&b, "%s: n/a\n", label)
		}
	}

	return b.String(), nil
}

func judgeFood(food string) mockVerdict {
	lowered := strings.ToLower(food)
	switch {
	case containsAny(lowered, "candy", "soda", "cola", "chips", "fries", "donut", "cake"):
		return mockVerdict{
			score:    "POOR",
			factor:   0.3,
			benefits: []string{"Quick energy"},
			warnings: []string{"High in added sugar or fat", "Low nutrient density"},
			reason:   "%s is energy dense and offers little nutritional value, so keep the portion small.",
		}
	case containsAny(lowered, "salad", "broccoli", "spinach", "chicken", "salmon", "lentil", "oat"):
		return mockVerdict{
			score:    "EXCELLENT",
			factor:   1.5,
			benefits: []string{"Nutrient dense", "Supports satiety"},
			reason:   "%s fits the profile well and can be eaten in a generous portion.",
		}
	case containsAny(lowered, "rice", "bread", "pasta", "potato", "cheese"):
		return mockVerdict{
			score:    "MODERATE",
			factor:   0.8,
			benefits: []string{"Source of energy"},
			warnings: []string{"Watch the portion size"},
			reason:   "%s is fine in moderation alongside vegetables and protein.",
		}
	default:
		return mockVerdict{
			score:    "GOOD",
			factor:   1.0,
			benefits: []string{"Part of a balanced diet"},
			reason:   "%s is a reasonable choice for this profile.",
		}
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
