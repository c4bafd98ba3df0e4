package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tenantd/tenantd/pkg/domain"
)

// RecordsRepository handles the sample tenant-scoped resource stored in
// each organization's partition.
type RecordsRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewRecordsRepository creates a new records repository. Every call is
// bounded by timeout.
func NewRecordsRepository(db *sql.DB, timeout time.Duration) *RecordsRepository {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &RecordsRepository{db: db, timeout: timeout}
}

// Create inserts a record into the partition.
func (r *RecordsRepository) Create(ctx context.Context, p *domain.Partition, record *domain.Record) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, qualify(p, "records"))
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.Title, record.Body, record.CreatedAt, record.UpdatedAt,
	)
	return MapError(err)
}

// GetByID retrieves a record from the partition.
func (r *RecordsRepository) GetByID(ctx context.Context, p *domain.Partition, id uuid.UUID) (*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, title, body, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, qualify(p, "records"))
	record := &domain.Record{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.Title, &record.Body, &record.CreatedAt, &record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return record, nil
}

// List returns the partition's records, newest first.
func (r *RecordsRepository) List(ctx context.Context, p *domain.Partition, limit int) ([]*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, title, body, created_at, updated_at
		FROM %s
		ORDER BY created_at DESC
		LIMIT $1
	`, qualify(p, "records"))
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var records []*domain.Record
	for rows.Next() {
		record := &domain.Record{}
		err := rows.Scan(
			&record.ID, &record.Title, &record.Body, &record.CreatedAt, &record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, MapError(rows.Err())
}
