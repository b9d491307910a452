package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fdg312/food-advisor/internal/nutrition"
)

// formatGuidance is the inline hint printed next to each answer label.
var formatGuidance = map[string]string{
	LabelSuitability:        "[EXCELLENT/GOOD/MODERATE/POOR/AVOID]",
	LabelRecommendedPortion: "[number in grams]",
	LabelBenefits:           "[list benefits separated by semicolons]",
	LabelWarnings:           "[list warnings separated by semicolons, or 'None' if no warnings]",
	LabelReasoning:          "[detailed explanation of your recommendation considering the user's profile]",
}

// BuildPrompt renders the analysis prompt. The output depends only on its inputs.
func BuildPrompt(profile nutrition.Profile, foodName string, portionGrams float64) string {
	var b strings.Builder

	b.WriteString("You are a professional nutritionist AI. Analyze this food for the user and provide personalized recommendations.\n\n")

	b.WriteString("USER PROFILE:\n")
	fmt.Fprintf(&b, "- Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "- Age: %d years\n", profile.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", profile.Gender)
	fmt.Fprintf(&b, "- Weight: %s kg\n", formatNumber(profile.WeightKg))
	fmt.Fprintf(&b, "- Height: %s cm\n", formatNumber(profile.HeightCm))
	fmt.Fprintf(&b, "- Activity Level: %s\n", profile.ActivityLevel.Description())
	fmt.Fprintf(&b, "- Daily Calorie Needs: %.0f calories\n", profile.DailyCalorieNeeds())
	if len(profile.HealthConditions) > 0 {
		fmt.Fprintf(&b, "- Health Conditions: %s\n", strings.Join(profile.HealthConditions, ", "))
	}

	b.WriteString("\nFOOD TO ANALYZE:\n")
	fmt.Fprintf(&b, "- Food: %s\n", foodName)
	fmt.Fprintf(&b, "- Portion Size: %s grams\n", formatNumber(portionGrams))
	b.WriteString("- Please analyze the nutritional content of this food and provide recommendations\n")

	b.WriteString("\nPLEASE PROVIDE YOUR ANALYSIS IN THIS EXACT FORMAT:\n")
	for _, label := range ResponseLabels {
		fmt.Fprintf(&b, "%s: %s\n", label, formatGuidance[label])
	}

	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
