package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/msomdec/fraudshield/internal/domain"
)

// CallRepository implements domain.CallRepository. The normalized audio is
// stored inline as a BLOB next to its classification.
type CallRepository struct {
	db *sql.DB
}

// NewCallRepository creates a new SQLite-backed CallRepository.
func NewCallRepository(db *DB) *CallRepository {
	return &CallRepository{db: db.SqlDB}
}

func (r *CallRepository) Create(ctx context.Context, call *domain.CallRecord) error {
	if !call.Classification.Storable() {
		return fmt.Errorf("%w: classification %q cannot be stored", domain.ErrInvalidInput, call.Classification)
	}
	if call.UserEmail == "" || call.FileName == "" || len(call.FileData) == 0 {
		return fmt.Errorf("%w: user email, file name and audio are required", domain.ErrInvalidInput)
	}

	// created_at comes back as Unix seconds so it scans the same whatever
	// type the driver reports for RETURNING columns.
	var id, createdAt int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO calls (user_email, file_name, file_data, classification, reason)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id, CAST(strftime('%s', created_at) AS INTEGER)`,
		call.UserEmail, call.FileName, call.FileData, string(call.Classification), call.Reason,
	).Scan(&id, &createdAt)
	if err != nil {
		return fmt.Errorf("%w: insert call: %w", domain.ErrPersistence, err)
	}

	call.ID = id
	call.CreatedAt = time.Unix(createdAt, 0).UTC()
	return nil
}

func (r *CallRepository) ListByUser(ctx context.Context, userEmail string, limit int) ([]domain.CallRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, file_name, classification, reason, created_at
		 FROM calls WHERE user_email = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, userEmail, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query calls: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var calls []domain.CallRecord
	for rows.Next() {
		var c domain.CallRecord
		var class string
		if err := rows.Scan(&c.ID, &c.UserEmail, &c.FileName, &class, &c.Reason, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan call: %w", domain.ErrPersistence, err)
		}
		c.Classification = domain.Classification(class)
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate calls: %w", domain.ErrPersistence, err)
	}
	return calls, nil
}

func (r *CallRepository) CountByClassification(ctx context.Context, c domain.Classification) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM calls WHERE classification = ?", string(c),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count calls: %w", domain.ErrPersistence, err)
	}
	return n, nil
}
