package blocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/avid-platform/avid/pkg/repository"
)

const blockColumns = `id, paper_id, label, kind, ordinal, title, content, proof,
		references_json, status, reason, verdict, result, created_at, updated_at`

// PostgresStore is the durable Store implementation backing the service.
// Every transition is a single guarded UPDATE so concurrent workers
// completing sibling blocks can never lose updates.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore over the given connection pool.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.With("system", "blocks"),
	}
}

// Insert writes the blocks of a newly submitted paper inside the given
// transaction. Blocks start pending with no verdict or result.
func (s *PostgresStore) Insert(ctx context.Context, tx *sql.Tx, paperID uuid.UUID, blks []Block) error {
	q := `
		INSERT INTO blocks(id, paper_id, label, kind, ordinal, title, content, proof, references_json, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, b := range blks {
		refs, err := json.Marshal(b.References)
		if err != nil {
			return fmt.Errorf("marshal references for %s: %w", b.Label, err)
		}

		id := b.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		if _, err := tx.ExecContext(
			ctx, q,
			id, paperID, b.Label, b.Kind, b.Ordinal,
			b.Title, b.Content, b.Proof, refs, StatusPending,
		); err != nil {
			return repository.MapError(fmt.Errorf("insert block %s: %w", b.Label, err), ErrNotFound, ErrDuplicate)
		}
	}

	return nil
}

func (s *PostgresStore) List(ctx context.Context, paperID uuid.UUID) ([]Block, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM blocks
		WHERE paper_id = $1
		ORDER BY ordinal ASC, label ASC`, blockColumns)

	blks, err := repository.QueryMany(ctx, s.db, q, []any{paperID}, scanBlock)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blks, nil
}

func (s *PostgresStore) Get(ctx context.Context, paperID uuid.UUID, label string) (*Block, error) {
	q := fmt.Sprintf(`SELECT %s FROM blocks WHERE paper_id = $1 AND label = $2`, blockColumns)

	b, err := repository.QueryOne(ctx, s.db, q, []any{paperID, label}, scanBlock)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &b, nil
}

func (s *PostgresStore) Apply(ctx context.Context, paperID uuid.UUID, label string, t Transition) (*Block, error) {
	if !CanTransition(t.From, t.To) {
		return nil, &TransitionError{Label: label, From: t.From, To: t.To}
	}

	verdict, err := marshalNullable(t.Verdict)
	if err != nil {
		return nil, fmt.Errorf("marshal verdict: %w", err)
	}
	result, err := marshalNullable(t.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	q := fmt.Sprintf(`
		UPDATE blocks
		SET status = $1,
			reason = $2,
			verdict = COALESCE($3, verdict),
			result = COALESCE($4, result),
			updated_at = NOW()
		WHERE paper_id = $5 AND label = $6 AND status = $7
		RETURNING %s`, blockColumns)

	args := []any{t.To, t.Reason, verdict, result, paperID, label, t.From}

	b, err := repository.QueryOne(ctx, s.db, q, args, scanBlock)
	if err == nil {
		return &b, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition block %s: %w", label, err)
	}

	// The guard did not match: either the block is gone or a concurrent
	// transition won. Report the status actually held.
	current, getErr := s.Get(ctx, paperID, label)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &TransitionError{Label: label, From: current.Status, To: t.To}
}

func (s *PostgresStore) Reset(ctx context.Context, paperID uuid.UUID) error {
	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE blocks
			 SET status = $1, reason = '', verdict = NULL, result = NULL, updated_at = NOW()
			 WHERE paper_id = $2`,
			StatusPending, paperID,
		)
		if err != nil {
			return struct{}{}, err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return struct{}{}, err
		}
		if rows == 0 {
			return struct{}{}, ErrNotFound
		}
		return struct{}{}, nil
	})

	if err != nil {
		return fmt.Errorf("reset blocks: %w", err)
	}

	s.logger.Info("blocks reset for reprocessing", "paper_id", paperID)
	return nil
}

func scanBlock(sc repository.Scanner) (Block, error) {
	var (
		b       Block
		refs    []byte
		verdict []byte
		result  []byte
	)

	if err := sc.Scan(
		&b.ID, &b.PaperID, &b.Label, &b.Kind, &b.Ordinal,
		&b.Title, &b.Content, &b.Proof, &refs,
		&b.Status, &b.Reason, &verdict, &result,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return Block{}, err
	}

	if err := json.Unmarshal(refs, &b.References); err != nil {
		return Block{}, fmt.Errorf("unmarshal references: %w", err)
	}
	if len(verdict) > 0 {
		if err := json.Unmarshal(verdict, &b.Verdict); err != nil {
			return Block{}, fmt.Errorf("unmarshal verdict: %w", err)
		}
	}
	if len(result) > 0 {
		if err := json.Unmarshal(result, &b.Result); err != nil {
			return Block{}, fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return b, nil
}

func marshalNullable(v any) (any, error) {
	switch t := v.(type) {
	case *NoveltyVerdict:
		if t == nil {
			return nil, nil
		}
	case *FormalizationResult:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
