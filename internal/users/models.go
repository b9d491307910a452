package users

import (
	"time"

	"github.com/fdg312/food-advisor/internal/nutrition"
	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
)

// UserDTO — DTO для API; ключ Gemini наружу не отдаётся
type UserDTO struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name"`
	Age                 int       `json:"age"`
	Gender              string    `json:"gender"`
	WeightKg            float64   `json:"weight_kg"`
	HeightCm            float64   `json:"height_cm"`
	ActivityLevel       string    `json:"activity_level"`
	ActivityDescription string    `json:"activity_description"`
	HealthConditions    []string  `json:"health_conditions"`
	HasGeminiAPIKey     bool      `json:"has_gemini_api_key"`
	BMR                 float64   `json:"bmr"`
	DailyCalorieNeeds   float64   `json:"daily_calorie_needs"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// UsersResponse — ответ для GET /v1/users
type UsersResponse struct {
	Users []UserDTO `json:"users"`
}

// RegisterRequest — запрос для POST /v1/users
type RegisterRequest struct {
	Email            string   `json:"email"`
	Name             string   `json:"name"`
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	WeightKg         float64  `json:"weight_kg"`
	HeightCm         float64  `json:"height_cm"`
	ActivityLevel    string   `json:"activity_level"`
	HealthConditions []string `json:"health_conditions"`
	GeminiAPIKey     string   `json:"gemini_api_key"`
}

// UpdateRequest — запрос для PUT /v1/users/{id}.
// GeminiAPIKey == nil оставляет ключ без изменений.
type UpdateRequest struct {
	Name             string   `json:"name"`
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	WeightKg         float64  `json:"weight_kg"`
	HeightCm         float64  `json:"height_cm"`
	ActivityLevel    string   `json:"activity_level"`
	HealthConditions []string `json:"health_conditions"`
	GeminiAPIKey     *string  `json:"gemini_api_key,omitempty"`
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToProfile builds the nutrition profile stored on a user record.
func ToProfile(u storage.User) nutrition.Profile {
	return nutrition.Profile{
		Name:             u.Name,
		Age:              u.Age,
		Gender:           nutrition.Gender(u.Gender),
		WeightKg:         u.WeightKg,
		HeightCm:         u.HeightCm,
		ActivityLevel:    nutrition.ActivityLevel(u.ActivityLevel),
		HealthConditions: append([]string(nil), u.HealthConditions...),
	}
}

func toDTO(u storage.User) UserDTO {
	p := ToProfile(u)
	conditions := u.HealthConditions
	if conditions == nil {
		conditions = []string{}
	}
	return UserDTO{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		Age:                 u.Age,
		Gender:              u.Gender,
		WeightKg:            u.WeightKg,
		HeightCm:            u.HeightCm,
		ActivityLevel:       u.ActivityLevel,
		ActivityDescription: p.ActivityLevel.Description(),
		HealthConditions:    conditions,
		HasGeminiAPIKey:     u.GeminiAPIKey != "",
		BMR:                 p.BMR(),
		DailyCalorieNeeds:   p.DailyCalorieNeeds(),
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}
