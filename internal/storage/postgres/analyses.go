package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
)

func (p *PostgresStorage) CreateAnalysis(ctx context.Context, a *storage.Analysis) error {
	query := `
		INSERT INTO analyses (id, user_id, food_name, portion_grams, suitable, suitability,
			recommended_portion_grams, reasoning, benefits, warnings, percent_of_daily_calories, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING created_at
	`

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	err := p.pool.QueryRow(ctx, query,
		a.ID,
		a.UserID,
		a.FoodName,
		a.PortionGrams,
		a.Suitable,
		a.Suitability,
		a.RecommendedPortionGrams,
		a.Reasoning,
		nonNil(a.Benefits),
		nonNil(a.Warnings),
		a.PercentOfDailyCalories,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

func (p *PostgresStorage) ListAnalyses(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.Analysis, error) {
	query := `
		SELECT id, user_id, food_name, portion_grams, suitable, suitability,
			recommended_portion_grams, reasoning, benefits, warnings, percent_of_daily_calories, created_at
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := p.pool.Query(ctx, query, userID, limitArg, offset)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := []storage.Analysis{}
	for rows.Next() {
		var a storage.Analysis
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.FoodName,
			&a.PortionGrams,
			&a.Suitable,
			&a.Suitability,
			&a.RecommendedPortionGrams,
			&a.Reasoning,
			&a.Benefits,
			&a.Warnings,
			&a.PercentOfDailyCalories,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.Benefits = nonNil(a.Benefits)
		a.Warnings = nonNil(a.Warnings)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) DeleteAnalysesByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM analyses WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete analyses: %w", err)
	}
	return nil
}
