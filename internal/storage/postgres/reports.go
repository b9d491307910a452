package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const reportColumns = `id, user_id, format, object_key, size_bytes, items_count, status, error,
	content_type, created_at, updated_at`

func scanReport(row pgx.Row) (*storage.ReportMeta, error) {
	var r storage.ReportMeta
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Format,
		&r.ObjectKey,
		&r.SizeBytes,
		&r.ItemsCount,
		&r.Status,
		&r.Error,
		&r.ContentType,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReport сохраняет метаданные; сами байты в Postgres не хранятся
func (p *PostgresStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	query := `
		INSERT INTO reports (id, user_id, format, object_key, size_bytes, items_count, status, error,
			content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	err := p.pool.QueryRow(ctx, query,
		report.ID,
		report.UserID,
		report.Format,
		report.ObjectKey,
		report.SizeBytes,
		report.ItemsCount,
		report.Status,
		report.Error,
		report.ContentType,
	).Scan(&report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	r, err := scanReport(p.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

func (p *PostgresStorage) ListReports(ctx context.Context, userID uuid.UUID) ([]storage.ReportMeta, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := []storage.ReportMeta{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
