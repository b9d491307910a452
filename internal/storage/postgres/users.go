package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, name, age, gender, weight_kg, height_cm, activity_level,
	health_conditions, gemini_api_key, created_at, updated_at`

func scanUser(row pgx.Row) (*storage.User, error) {
	var u storage.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Age,
		&u.Gender,
		&u.WeightKg,
		&u.HeightCm,
		&u.ActivityLevel,
		&u.HealthConditions,
		&u.GeminiAPIKey,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.HealthConditions = nonNil(u.HealthConditions)
	return &u, nil
}

func (p *PostgresStorage) CreateUser(ctx context.Context, user *storage.User) error {
	query := `
		INSERT INTO users (id, email, name, age, gender, weight_kg, height_cm, activity_level,
			health_conditions, gemini_api_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := p.pool.QueryRow(ctx, query,
		user.ID,
		strings.TrimSpace(user.Email),
		user.Name,
		user.Age,
		user.Gender,
		user.WeightKg,
		user.HeightCm,
		user.ActivityLevel,
		nonNil(user.HealthConditions),
		user.GeminiAPIKey,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (p *PostgresStorage) UpdateUser(ctx context.Context, user *storage.User) error {
	query := `
		UPDATE users
		SET email = $2, name = $3, age = $4, gender = $5, weight_kg = $6, height_cm = $7,
			activity_level = $8, health_conditions = $9, gemini_api_key = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := p.pool.QueryRow(ctx, query,
		user.ID,
		strings.TrimSpace(user.Email),
		user.Name,
		user.Age,
		user.Gender,
		user.WeightKg,
		user.HeightCm,
		user.ActivityLevel,
		nonNil(user.HealthConditions),
		user.GeminiAPIKey,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	u, err := scanUser(p.pool.QueryRow(ctx, query, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (p *PostgresStorage) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		strings.TrimSpace(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (p *PostgresStorage) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user id: %w", err)
	}
	return exists, nil
}

// DeleteUser удаляет пользователя; анализы и отчёты удаляются каскадно
func (p *PostgresStorage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) ListUsers(ctx context.Context) ([]storage.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []storage.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
