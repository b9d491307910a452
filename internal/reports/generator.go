package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fdg312/food-advisor/internal/nutrition"
	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/fdg312/food-advisor/internal/users"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// UserSource отдаёт профиль пользователя для шапки отчёта
type UserSource interface {
	GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error)
}

// AnalysisSource отдаёт историю анализов
type AnalysisSource interface {
	ListAnalyses(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.Analysis, error)
}

// Generator generates PDF/CSV reports of a user's analysis history
type Generator struct {
	users    UserSource
	analyses AnalysisSource
	maxItems int
}

func NewGenerator(users UserSource, analyses AnalysisSource, maxItems int) *Generator {
	if maxItems <= 0 {
		maxItems = 50
	}
	return &Generator{users: users, analyses: analyses, maxItems: maxItems}
}

// Summary aggregates the analyses included in a report.
type Summary struct {
	Total          int
	Suitable       int
	BySuitability  map[string]int
	AvgPercentDay  float64
	TotalPortion   float64
	LatestAnalysis time.Time
}

// GenerateReport returns the rendered report and the number of analyses in it.
func (g *Generator) GenerateReport(ctx context.Context, userID uuid.UUID, format string) ([]byte, int, error) {
	user, err := g.users.GetUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("load user: %w", err)
	}

	items, err := g.analyses.ListAnalyses(ctx, userID, g.maxItems, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch analyses: %w", err)
	}

	var data []byte
	switch format {
	case FormatPDF:
		data, err = g.generatePDF(*user, items)
	case FormatCSV:
		data, err = g.generateCSV(items)
	default:
		return nil, 0, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, 0, err
	}
	return data, len(items), nil
}

func (g *Generator) generateCSV(items []storage.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"created_at", "food_name", "portion_grams", "suitability", "suitable",
		"recommended_portion_grams", "percent_of_daily_calories", "benefits", "warnings", "reasoning"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, a := range items {
		row := []string{
			a.CreatedAt.UTC().Format(time.RFC3339),
			a.FoodName,
			formatGrams(a.PortionGrams),
			a.Suitability,
			strconv.FormatBool(a.Suitable),
			formatGrams(a.RecommendedPortionGrams),
			strconv.FormatFloat(a.PercentOfDailyCalories, 'f', 2, 64),
			strings.Join(a.Benefits, "; "),
			strings.Join(a.Warnings, "; "),
			a.Reasoning,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// generatePDF uses the core Arial font; text goes through the cp1252 translator.
func (g *Generator) generatePDF(user storage.User, items []storage.Analysis) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	const fontName = "Arial"

	pdf.SetTitle("Food Advisor Report", true)
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 16)
	pdf.Cell(0, 10, "Food Advisor Report")
	pdf.Ln(8)
	pdf.SetFont(fontName, "", 10)
	pdf.Cell(0, 6, "Generated: "+time.Now().UTC().Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	profile := users.ToProfile(user)
	pdf.SetFont(fontName, "B", 13)
	pdf.Cell(0, 8, "Profile")
	pdf.Ln(8)
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		"Name: " + user.Name,
		fmt.Sprintf("Age: %d, Gender: %s", user.Age, user.Gender),
		fmt.Sprintf("Weight: %s kg, Height: %s cm", formatGrams(user.WeightKg), formatGrams(user.HeightCm)),
		"Activity: " + activityLabel(profile.ActivityLevel),
		fmt.Sprintf("BMR: %.0f kcal, Daily needs: %.0f kcal", profile.BMR(), profile.DailyCalorieNeeds()),
	}
	if len(user.HealthConditions) > 0 {
		lines = append(lines, "Health conditions: "+strings.Join(user.HealthConditions, ", "))
	}
	for _, line := range lines {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(5)
	}
	pdf.Ln(6)

	summary := Summarize(items)
	pdf.SetFont(fontName, "B", 13)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont(fontName, "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Analyses: %d, suitable: %d", summary.Total, summary.Suitable))
	pdf.Ln(5)
	for _, s := range []string{"EXCELLENT", "GOOD", "MODERATE", "POOR", "AVOID"} {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %d", s, summary.BySuitability[s]))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Average share of daily calories: %.1f%%", summary.AvgPercentDay))
	pdf.Ln(10)

	if len(items) > 0 {
		pdf.SetFont(fontName, "B", 13)
		pdf.Cell(0, 8, "Recent analyses")
		pdf.Ln(8)
		drawAnalysesTable(pdf, tr, items, fontName)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawAnalysesTable(pdf *gofpdf.Fpdf, tr func(string) string, items []storage.Analysis, fontName string) {
	pdf.SetFont(fontName, "B", 8)
	pdf.CellFormat(25, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Food", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Portion, g", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Suitability", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Recommended, g", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "% daily kcal", "1", 1, "C", false, 0, "")

	pdf.SetFont(fontName, "", 8)
	for _, a := range items {
		pdf.CellFormat(25, 6, a.CreatedAt.UTC().Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 6, tr(truncate(a.FoodName, 34)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, formatGrams(a.PortionGrams), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, a.Suitability, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, formatGrams(a.RecommendedPortionGrams), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, strconv.FormatFloat(a.PercentOfDailyCalories, 'f', 1, 64), "1", 1, "C", false, 0, "")
	}
}

// Summarize counts analyses per suitability and averages their calorie share.
func Summarize(items []storage.Analysis) Summary {
	s := Summary{BySuitability: make(map[string]int)}
	var pct float64
	for _, a := range items {
		s.Total++
		if a.Suitable {
			s.Suitable++
		}
		s.BySuitability[a.Suitability]++
		s.TotalPortion += a.PortionGrams
		pct += a.PercentOfDailyCalories
		if a.CreatedAt.After(s.LatestAnalysis) {
			s.LatestAnalysis = a.CreatedAt
		}
	}
	if s.Total > 0 {
		s.AvgPercentDay = pct / float64(s.Total)
	}
	return s
}

func activityLabel(level nutrition.ActivityLevel) string {
	if !level.Valid() {
		return string(level)
	}
	return fmt.Sprintf("%s (%s)", level, level.Description())
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
