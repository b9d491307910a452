package users

import (
	"context"
	"errors"
	"strings"

	"github.com/fdg312/food-advisor/internal/nutrition"
	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrEmailTaken   = errors.New("email already registered")
	ErrNotFound     = errors.New("user not found")
)

// HistoryCleaner удаляет историю анализов пользователя
type HistoryCleaner interface {
	DeleteAnalysesByUser(ctx context.Context, userID uuid.UUID) error
}

// Service содержит бизнес-логику пользователей
type Service struct {
	store   storage.UsersStorage
	history HistoryCleaner
	logger  zerolog.Logger
}

// NewService создаёт новый сервис
func NewService(store storage.UsersStorage, history HistoryCleaner, logger zerolog.Logger) *Service {
	return &Service{store: store, history: history, logger: logger}
}

// Register создаёт пользователя с профилем
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	profile, err := buildProfile(req.Name, req.Age, req.Gender, req.WeightKg, req.HeightCm, req.ActivityLevel, req.HealthConditions)
	if err != nil {
		return nil, err
	}

	taken, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	user := &storage.User{
		Email:        email,
		GeminiAPIKey: strings.TrimSpace(req.GeminiAPIKey),
	}
	applyProfile(user, profile)

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	dto := toDTO(*user)
	return &dto, nil
}

// Get возвращает пользователя по ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dto := toDTO(*user)
	return &dto, nil
}

// GetByEmail используется при входе
func (s *Service) GetByEmail(ctx context.Context, email string) (*UserDTO, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dto := toDTO(*user)
	return &dto, nil
}

// Exists проверяет, что пользователь существует
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.ExistsByID(ctx, id)
}

// List возвращает всех пользователей
func (s *Service) List(ctx context.Context) ([]UserDTO, error) {
	list, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]UserDTO, 0, len(list))
	for _, u := range list {
		dtos = append(dtos, toDTO(u))
	}
	return dtos, nil
}

// Update обновляет профиль; email не меняется
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*UserDTO, error) {
	profile, err := buildProfile(req.Name, req.Age, req.Gender, req.WeightKg, req.HeightCm, req.ActivityLevel, req.HealthConditions)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	applyProfile(user, profile)
	if req.GeminiAPIKey != nil {
		user.GeminiAPIKey = strings.TrimSpace(*req.GeminiAPIKey)
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	dto := toDTO(*user)
	return &dto, nil
}

// Delete удаляет пользователя и его историю анализов
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if s.history != nil {
		if err := s.history.DeleteAnalysesByUser(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("user_id", id.String()).Msg("failed to delete analysis history")
		}
	}
	return nil
}

func buildProfile(name string, age int, gender string, weightKg, heightCm float64, activity string, conditions []string) (nutrition.Profile, error) {
	g, err := nutrition.ParseGender(gender)
	if err != nil {
		return nutrition.Profile{}, nutrition.ErrInvalidGender
	}
	a, err := nutrition.ParseActivityLevel(activity)
	if err != nil {
		return nutrition.Profile{}, nutrition.ErrInvalidActivityLevel
	}

	p := nutrition.Profile{
		Name:             strings.TrimSpace(name),
		Age:              age,
		Gender:           g,
		WeightKg:         weightKg,
		HeightCm:         heightCm,
		ActivityLevel:    a,
		HealthConditions: normalizeConditions(conditions),
	}
	if err := p.Validate(); err != nil {
		return nutrition.Profile{}, err
	}
	return p, nil
}

func applyProfile(u *storage.User, p nutrition.Profile) {
	u.Name = p.Name
	u.Age = p.Age
	u.Gender = string(p.Gender)
	u.WeightKg = p.WeightKg
	u.HeightCm = p.HeightCm
	u.ActivityLevel = string(p.ActivityLevel)
	u.HealthConditions = p.HealthConditions
}

func normalizeConditions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\n")
}
