package nutrition

import (
	"errors"
	"fmt"
	"strings"
)

// Gender — пол пользователя для формулы Mifflin-St Jeor
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// ActivityLevel — уровень физической активности
type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "SEDENTARY"
	ActivityLightlyActive    ActivityLevel = "LIGHTLY_ACTIVE"
	ActivityModeratelyActive ActivityLevel = "MODERATELY_ACTIVE"
	ActivityVeryActive       ActivityLevel = "VERY_ACTIVE"
	ActivityExtremelyActive  ActivityLevel = "EXTREMELY_ACTIVE"
)

type activityInfo struct {
	multiplier  float64
	description string
}

// activityLevels is the single source of truth for valid activity levels.
var activityLevels = map[ActivityLevel]activityInfo{
	ActivitySedentary:        {1.2, "Little or no exercise"},
	ActivityLightlyActive:    {1.375, "Light exercise/sports 1-3 days/week"},
	ActivityModeratelyActive: {1.55, "Moderate exercise/sports 3-5 days/week"},
	ActivityVeryActive:       {1.725, "Hard exercise/sports 6-7 days a week"},
	ActivityExtremelyActive:  {1.9, "Very hard exercise/sports & physical job or 2x training"},
}

var (
	ErrInvalidName          = errors.New("name is required")
	ErrInvalidAge           = errors.New("age must be between 10 and 120")
	ErrInvalidGender        = errors.New("gender must be MALE or FEMALE")
	ErrInvalidWeight        = errors.New("weight must be between 20 and 300 kg")
	ErrInvalidHeight        = errors.New("height must be between 100 and 250 cm")
	ErrInvalidActivityLevel = errors.New("unknown activity level")
)

// Multiplier возвращает коэффициент активности (0 для неизвестного уровня)
func (a ActivityLevel) Multiplier() float64 {
	return activityLevels[a].multiplier
}

// Description возвращает человекочитаемое описание уровня
func (a ActivityLevel) Description() string {
	if info, ok := activityLevels[a]; ok {
		return info.description
	}
	return string(a)
}

func (a ActivityLevel) Valid() bool {
	_, ok := activityLevels[a]
	return ok
}

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// ParseGender accepts any casing and surrounding whitespace.
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGender, s)
	}
	return g, nil
}

// ParseActivityLevel accepts any casing; "moderately active" and
// "moderately-active" map to MODERATELY_ACTIVE.
func ParseActivityLevel(s string) (ActivityLevel, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	a := ActivityLevel(normalized)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidActivityLevel, s)
	}
	return a, nil
}

// Profile — данные профиля, на основе которых строится анализ
type Profile struct {
	Name             string
	Age              int
	Gender           Gender
	WeightKg         float64
	HeightCm         float64
	ActivityLevel    ActivityLevel
	HealthConditions []string
}

// BMR returns the basal metabolic rate (Mifflin-St Jeor), kcal/day.
func (p Profile) BMR() float64 {
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Gender == GenderMale {
		return bmr + 5
	}
	return bmr - 161
}

// DailyCalorieNeeds returns BMR scaled by the activity multiplier.
func (p Profile) DailyCalorieNeeds() float64 {
	return p.BMR() * p.ActivityLevel.Multiplier()
}

// Validate проверяет диапазоны полей профиля
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if p.Age < 10 || p.Age > 120 {
		return ErrInvalidAge
	}
	if !p.Gender.Valid() {
		return ErrInvalidGender
	}
	if p.WeightKg < 20 || p.WeightKg > 300 {
		return ErrInvalidWeight
	}
	if p.HeightCm < 100 || p.HeightCm > 250 {
		return ErrInvalidHeight
	}
	if !p.ActivityLevel.Valid() {
		return ErrInvalidActivityLevel
	}
	return nil
}
