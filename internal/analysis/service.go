package analysis

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/fdg312/food-advisor/internal/ai"
	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/fdg312/food-advisor/internal/users"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	MinPortionGrams = 1
	MaxPortionGrams = 2000

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// UserStore is the user lookup the service depends on.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error)
}

// HistoryStore persists finished analyses.
type HistoryStore interface {
	CreateAnalysis(ctx context.Context, a *storage.Analysis) error
	ListAnalyses(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.Analysis, error)
}

// Service runs the analysis pipeline: user lookup, prompt, remote call, parse.
type Service struct {
	users   UserStore
	history HistoryStore
	client  ai.Client
	logger  zerolog.Logger
}

// NewService создаёт сервис анализа
func NewService(userStore UserStore, history HistoryStore, client ai.Client, logger zerolog.Logger) *Service {
	return &Service{
		users:   userStore,
		history: history,
		client:  client,
		logger:  logger.With().Str("component", "analysis").Logger(),
	}
}

// Analyze returns a recommendation for foodName at portionGrams for the user.
// Every error is a *Failure.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, foodName string, portionGrams float64) (*Recommendation, error) {
	foodName = strings.TrimSpace(foodName)
	if err := validateRequest(userID, foodName, portionGrams); err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &Failure{Kind: FailureUserNotFound, Message: "user not found", Cause: ErrUserNotFound}
		}
		return nil, &Failure{Kind: FailureInternal, Message: "load user", Cause: err}
	}

	profile := users.ToProfile(*user)
	if err := profile.Validate(); err != nil {
		return nil, &Failure{Kind: FailureInvalidRequest, Message: "user profile is incomplete", Cause: err}
	}

	prompt := BuildPrompt(profile, foodName, portionGrams)

	raw, err := s.client.Generate(ctx, prompt, user.GeminiAPIKey)
	if err != nil {
		f := classifyClientError(err)
		s.logger.Warn().
			Str("user_id", userID.String()).
			Str("kind", string(f.Kind)).
			Err(err).
			Msg("analysis request failed")
		return nil, f
	}

	rec, err := ParseRecommendation(raw, portionGrams, profile.DailyCalorieNeeds())
	if err != nil {
		return nil, &Failure{Kind: FailureParse, Message: "could not read the analysis reply", Cause: err}
	}
	rec.FoodName = foodName

	s.record(ctx, userID, rec)

	return rec, nil
}

// History возвращает последние анализы пользователя
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]AnalysisDTO, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.history.ListAnalyses(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]AnalysisDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

// record saves the result; a storage failure never fails the analysis.
func (s *Service) record(ctx context.Context, userID uuid.UUID, rec *Recommendation) {
	if s.history == nil {
		return
	}
	row := &storage.Analysis{
		UserID:                  userID,
		FoodName:                rec.FoodName,
		PortionGrams:            rec.PortionGrams,
		Suitable:                rec.Suitable,
		Suitability:             string(rec.Suitability),
		RecommendedPortionGrams: rec.RecommendedPortionGrams,
		Reasoning:               rec.Reasoning,
		Benefits:                append([]string(nil), rec.Benefits...),
		Warnings:                append([]string(nil), rec.Warnings...),
		PercentOfDailyCalories:  rec.PercentOfDailyCalories,
	}
	if err := s.history.CreateAnalysis(ctx, row); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to save analysis history")
	}
}

func validateRequest(userID uuid.UUID, foodName string, portionGrams float64) error {
	switch {
	case userID == uuid.Nil:
		return &Failure{Kind: FailureInvalidRequest, Message: "user_id is required", Cause: ErrInvalidRequest}
	case foodName == "":
		return &Failure{Kind: FailureInvalidRequest, Message: "food_name is required", Cause: ErrInvalidRequest}
	case math.IsNaN(portionGrams) || math.IsInf(portionGrams, 0),
		portionGrams < MinPortionGrams || portionGrams > MaxPortionGrams:
		return &Failure{Kind: FailureInvalidRequest, Message: "portion_grams must be between 1 and 2000", Cause: ErrInvalidRequest}
	}
	return nil
}

func classifyClientError(err error) *Failure {
	var (
		credErr      *ai.CredentialError
		rateErr      *ai.RateLimitError
		transportErr *ai.TransportError
	)
	switch {
	case errors.As(err, &credErr):
		return &Failure{Kind: FailureCredential, Message: credentialMessage(credErr.Reason), Cause: err}
	case errors.As(err, &rateErr):
		return &Failure{Kind: FailureRateLimit, Message: "analysis service is busy, try again later", Cause: err}
	case errors.As(err, &transportErr):
		return &Failure{Kind: FailureTransport, Message: "analysis service is unavailable", Cause: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: FailureTransport, Message: "analysis request was interrupted", Cause: err}
	default:
		return &Failure{Kind: FailureInternal, Message: "analysis failed", Cause: err}
	}
}

func credentialMessage(reason ai.CredentialReason) string {
	switch reason {
	case ai.CredentialMissing:
		return "Gemini API key is not configured for this user"
	case ai.CredentialMalformed:
		return "Gemini API key has an invalid format"
	default:
		return "Gemini API key was rejected"
	}
}

func toDTO(a storage.Analysis) AnalysisDTO {
	return AnalysisDTO{
		ID:     a.ID,
		UserID: a.UserID,
		Recommendation: Recommendation{
			FoodName:                a.FoodName,
			PortionGrams:            a.PortionGrams,
			Suitable:                a.Suitable,
			Suitability:             Suitability(a.Suitability),
			RecommendedPortionGrams: a.RecommendedPortionGrams,
			Reasoning:               a.Reasoning,
			Benefits:                nonNil(a.Benefits),
			Warnings:                nonNil(a.Warnings),
			PercentOfDailyCalories:  a.PercentOfDailyCalories,
		},
		CreatedAt: a.CreatedAt,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
