package analysis

import (
	"time"

	"github.com/google/uuid"
)

// Answer labels the model must emit, one per line.
const (
	LabelSuitability        = "SUITABILITY"
	LabelRecommendedPortion = "RECOMMENDED_PORTION"
	LabelBenefits           = "BENEFITS"
	LabelWarnings           = "WARNINGS"
	LabelReasoning          = "REASONING"
)

// ResponseLabels is the answer contract shared by the prompt builder and the
// parser, in the order the model is asked to emit them.
var ResponseLabels = [5]string{
	LabelSuitability,
	LabelRecommendedPortion,
	LabelBenefits,
	LabelWarnings,
	LabelReasoning,
}

// Suitability — оценка пригодности продукта для пользователя
type Suitability string

const (
	SuitabilityExcellent Suitability = "EXCELLENT"
	SuitabilityGood      Suitability = "GOOD"
	SuitabilityModerate  Suitability = "MODERATE"
	SuitabilityPoor      Suitability = "POOR"
	SuitabilityAvoid     Suitability = "AVOID"
)

// Suitabilities in descending order of fitness.
var Suitabilities = [5]Suitability{
	SuitabilityExcellent,
	SuitabilityGood,
	SuitabilityModerate,
	SuitabilityPoor,
	SuitabilityAvoid,
}

// Suitable is false only for POOR and AVOID.
func (s Suitability) Suitable() bool {
	return s != SuitabilityPoor && s != SuitabilityAvoid
}

// Recommendation — результат анализа одного продукта
type Recommendation struct {
	FoodName                string      `json:"food_name"`
	PortionGrams            float64     `json:"portion_grams"`
	Suitable                bool        `json:"suitable"`
	Suitability             Suitability `json:"suitability_score"`
	RecommendedPortionGrams float64     `json:"recommended_portion_grams"`
	Reasoning               string      `json:"reasoning"`
	Benefits                []string    `json:"benefits"`
	Warnings                []string    `json:"warnings"`
	PercentOfDailyCalories  float64     `json:"percent_of_daily_calories"`
}

// AnalysisDTO — запись истории анализов
type AnalysisDTO struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Recommendation
	CreatedAt time.Time `json:"created_at"`
}

// AnalyzeRequest — тело POST /v1/analyses
type AnalyzeRequest struct {
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	FoodName     string     `json:"food_name"`
	PortionGrams *float64   `json:"portion_grams,omitempty"`
}

// HistoryResponse — ответ GET /v1/analyses
type HistoryResponse struct {
	Items []AnalysisDTO `json:"items"`
}
