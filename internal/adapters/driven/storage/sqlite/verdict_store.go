package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

// verdictStore implements driven.VerdictStore.
type verdictStore struct {
	store *Store
}

var _ driven.VerdictStore = (*verdictStore)(nil)

const summaryColumns = "id, subject_id, kind, mode, score, label, created_unix"

// Save stores or replaces a verdict.
func (s *verdictStore) Save(ctx context.Context, verdict domain.Verdict) error {
	if verdict.ID == "" {
		return fmt.Errorf("%w: verdict has no id", domain.ErrInvalidInput)
	}
	body, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshalling verdict: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO verdicts (id, subject_id, kind, mode, score, label, created_unix, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject_id = excluded.subject_id,
			kind = excluded.kind,
			mode = excluded.mode,
			score = excluded.score,
			label = excluded.label,
			created_unix = excluded.created_unix,
			body = excluded.body
	`, verdict.ID, verdict.SubjectID, string(verdict.Kind), verdict.Mode.String(),
		verdict.Score.Value, string(verdict.Score.Label), verdict.CreatedAt.UnixNano(), string(body))
	if err != nil {
		return fmt.Errorf("saving verdict: %w", err)
	}
	return nil
}

// Get retrieves a verdict by ID.
func (s *verdictStore) Get(ctx context.Context, id string) (*domain.Verdict, error) {
	var body string
	row := s.store.db.QueryRowContext(ctx, "SELECT body FROM verdicts WHERE id = ?", id)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning verdict: %w", err)
	}

	var v domain.Verdict
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, fmt.Errorf("unmarshaling verdict: %w", err)
	}
	return &v, nil
}

// List returns the most recent verdicts, newest first.
func (s *verdictStore) List(ctx context.Context, limit int) ([]domain.VerdictSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, `SELECT `+summaryColumns+` FROM verdicts
		ORDER BY created_unix DESC, id LIMIT ?`, limit)
}

// ListBySubject returns verdicts for one subject, newest first.
func (s *verdictStore) ListBySubject(ctx context.Context, subjectID string) ([]domain.VerdictSummary, error) {
	return s.query(ctx, `SELECT `+summaryColumns+` FROM verdicts
		WHERE subject_id = ? ORDER BY created_unix DESC, id`, subjectID)
}

// Delete removes a verdict.
func (s *verdictStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM verdicts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting verdict: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting verdict: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *verdictStore) query(ctx context.Context, query string, args ...any) ([]domain.VerdictSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying verdicts: %w", err)
	}
	defer rows.Close()

	summaries := []domain.VerdictSummary{}
	for rows.Next() {
		var sum domain.VerdictSummary
		var kind, mode, label string
		var created int64
		if err := rows.Scan(&sum.ID, &sum.SubjectID, &kind, &mode, &sum.Score, &label, &created); err != nil {
			return nil, fmt.Errorf("scanning verdict: %w", err)
		}
		sum.Kind = domain.VerdictKind(kind)
		sum.Mode = domain.AnalysisMode(mode)
		sum.Label = domain.VerdictLabel(label)
		sum.CreatedAt = time.Unix(0, created).UTC()
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating verdicts: %w", err)
	}
	return summaries, nil
}
