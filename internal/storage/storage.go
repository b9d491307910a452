package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound возвращается, когда запись не найдена
var ErrNotFound = errors.New("not found")

// ErrConflict возвращается при нарушении уникальности (например, email)
var ErrConflict = errors.New("conflict")

// User — зарегистрированный пользователь вместе с профилем и ключом Gemini
type User struct {
	ID               uuid.UUID
	Email            string
	Name             string
	Age              int
	Gender           string // MALE | FEMALE
	WeightKg         float64
	HeightCm         float64
	ActivityLevel    string
	HealthConditions []string
	GeminiAPIKey     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Analysis — сохранённый результат анализа продукта
type Analysis struct {
	ID                      uuid.UUID
	UserID                  uuid.UUID
	FoodName                string
	PortionGrams            float64
	Suitable                bool
	Suitability             string
	RecommendedPortionGrams float64
	Reasoning               string
	Benefits                []string
	Warnings                []string
	PercentOfDailyCalories  float64
	CreatedAt               time.Time
}

// ReportMeta — метаданные отчёта
type ReportMeta struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Format      string  // "pdf" or "csv"
	ObjectKey   *string
	SizeBytes   int64
	ItemsCount  int
	Status      string // "ready" or "failed"
	Error       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ContentType string
}

// UsersStorage — интерфейс для работы с пользователями
type UsersStorage interface {
	// CreateUser создаёт пользователя; ErrConflict, если email занят
	CreateUser(ctx context.Context, user *User) error

	// UpdateUser обновляет профиль пользователя
	UpdateUser(ctx context.Context, user *User) error

	// GetUser возвращает пользователя по ID
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)

	// GetUserByEmail ищет пользователя по email (без учёта регистра)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteUser удаляет пользователя
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// ListUsers возвращает всех пользователей по дате создания
	ListUsers(ctx context.Context) ([]User, error)
}

// AnalysesStorage — история анализов
type AnalysesStorage interface {
	CreateAnalysis(ctx context.Context, analysis *Analysis) error

	// ListAnalyses возвращает анализы пользователя, новые первыми
	ListAnalyses(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Analysis, error)

	DeleteAnalysesByUser(ctx context.Context, userID uuid.UUID) error
}

// ReportsStorage — интерфейс для работы с отчётами
type ReportsStorage interface {
	// CreateReport сохраняет метаданные отчёта; байты лежат в blob.Store
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport возвращает отчёт по ID
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)

	// ListReports возвращает отчёты пользователя, новые первыми
	ListReports(ctx context.Context, userID uuid.UUID) ([]ReportMeta, error)

	// DeleteReport удаляет метаданные отчёта
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// Storage объединяет все хранилища сервиса
type Storage interface {
	UsersStorage
	AnalysesStorage
	ReportsStorage

	// Close закрывает соединение (для Postgres)
	Close() error
}
