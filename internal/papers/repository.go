package papers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/avid-platform/avid/internal/blocks"
	"github.com/avid-platform/avid/internal/graph"
	"github.com/avid-platform/avid/internal/pipeline"
	"github.com/avid-platform/avid/pkg/archive"
	"github.com/avid-platform/avid/pkg/pagination"
	"github.com/avid-platform/avid/pkg/query"
	"github.com/avid-platform/avid/pkg/repository"
)

// BlockStore is the status store the paper domain requires: the shared
// Store contract plus transactional insertion at submission.
type BlockStore interface {
	blocks.Store
	Insert(ctx context.Context, tx *sql.Tx, paperID uuid.UUID, blks []blocks.Block) error
}

// Pipeline runs a paper's blocks to completion. Satisfied by
// *pipeline.Orchestrator.
type Pipeline interface {
	Run(ctx context.Context, paperID uuid.UUID) (*pipeline.Report, error)
}

type repo struct {
	db         *sql.DB
	store      BlockStore
	archive    archive.System
	pipeline   Pipeline
	logger     *slog.Logger
	pagination pagination.Config
	runs       *runSet
}

// New creates a paper repository implementing the System interface.
func New(
	db *sql.DB,
	store BlockStore,
	arch archive.System,
	pipe Pipeline,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		store:      store,
		archive:    arch,
		pipeline:   pipe,
		logger:     logger.With("system", "papers"),
		pagination: pagination,
		runs:       newRunSet(),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Paper], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Author")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count papers: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	results, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPaper)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}

	result := pagination.NewPageResult(results, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Paper, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPaper)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Submit(ctx context.Context, cmd SubmitCommand) (*Paper, error) {
	if err := validateSubmission(cmd); err != nil {
		return nil, err
	}

	id := uuid.New()
	blks := buildBlocks(id, cmd.Blocks)

	status := StatusReceived
	reason := ""
	if _, err := graph.Build(blks); err != nil {
		status = StatusRejected
		reason = err.Error()
	}

	var sourceKey *string
	if len(cmd.Source) > 0 {
		key := buildSourceKey(id)
		if err := r.archive.Put(ctx, key, bytes.NewReader(cmd.Source), "application/x-tex"); err != nil {
			return nil, fmt.Errorf("archive paper source: %w", err)
		}
		sourceKey = &key
	}

	q := `
		INSERT INTO papers(id, title, author, source_key, status, status_reason, block_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, title, author, source_key, status, status_reason, block_count, submitted_at, updated_at`

	insertArgs := []any{id, cmd.Title, cmd.Author, sourceKey, status, reason, len(blks)}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Paper, error) {
		paper, err := repository.QueryOne(ctx, tx, q, insertArgs, scanPaper)
		if err != nil {
			return Paper{}, err
		}
		if err := r.store.Insert(ctx, tx, id, blks); err != nil {
			return Paper{}, err
		}
		return paper, nil
	})
	if err != nil {
		if sourceKey != nil {
			if delErr := r.archive.Remove(ctx, *sourceKey); delErr != nil {
				r.logger.Warn("compensating source delete failed", "key", *sourceKey, "error", delErr)
			}
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if status == StatusRejected {
		r.logger.Info("paper rejected on submission",
			"id", p.ID,
			"title", p.Title,
			"reason", reason,
		)
		return &p, nil
	}

	if err := r.launch(p.ID); err != nil {
		return nil, err
	}

	r.logger.Info("paper submitted", "id", p.ID, "title", p.Title, "blocks", len(blks))
	return &p, nil
}

func (r *repo) Report(ctx context.Context, id uuid.UUID) (*pipeline.Report, error) {
	p, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusReceived || p.Status == StatusProcessing {
		return nil, ErrReportNotReady
	}

	blks, err := r.store.List(ctx, id)
	if err != nil {
		return nil, err
	}
	return pipeline.BuildReport(id, blks), nil
}

func (r *repo) Blocks(ctx context.Context, id uuid.UUID) ([]blocks.Block, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}
	return r.store.List(ctx, id)
}

func (r *repo) Cancel(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Find(ctx, id); err != nil {
		return err
	}
	if err := r.runs.cancel(id); err != nil {
		return err
	}

	r.logger.Info("paper run canceled", "id", id)
	return nil
}

func (r *repo) Reprocess(ctx context.Context, id uuid.UUID) (*Paper, error) {
	p, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.runs.active(id) {
		return nil, ErrAlreadyRunning
	}

	blks, err := r.store.List(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := graph.Build(blks); err != nil {
		return nil, err
	}

	if err := r.store.Reset(ctx, id); err != nil {
		return nil, err
	}
	if err := r.setStatus(ctx, id, StatusReceived, ""); err != nil {
		return nil, err
	}
	if err := r.launch(id); err != nil {
		return nil, err
	}

	r.logger.Info("paper reprocessing", "id", id, "title", p.Title)
	return r.Find(ctx, id)
}

func (r *repo) DownloadSource(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	p, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SourceKey == nil {
		return nil, ErrNoSource
	}
	return r.archive.Fetch(ctx, *p.SourceKey)
}

func (r *repo) Resume(ctx context.Context) error {
	ids, err := repository.QueryMany(
		ctx, r.db,
		"SELECT id FROM papers WHERE status = $1",
		[]any{StatusProcessing},
		func(s repository.Scanner) (uuid.UUID, error) {
			var id uuid.UUID
			err := s.Scan(&id)
			return id, err
		},
	)
	if err != nil {
		return fmt.Errorf("query interrupted papers: %w", err)
	}

	for _, id := range ids {
		if err := r.launch(id); err != nil {
			r.logger.Error("resume failed", "id", id, "error", err)
			continue
		}
		r.logger.Info("paper run resumed", "id", id)
	}
	return nil
}

// Shutdown suspends every active run. Blocks keep their persisted stage
// and the paper stays processing, so Resume picks the run back up on the
// next start.
func (r *repo) Shutdown() {
	r.runs.shutdown()
}

// launch claims a run slot, marks the paper processing, and starts the
// pipeline in a background goroutine that finalizes the paper status when
// the run ends.
func (r *repo) launch(id uuid.UUID) error {
	runCtx, err := r.runs.claim(id)
	if err != nil {
		return err
	}

	if err := r.setStatus(context.Background(), id, StatusProcessing, ""); err != nil {
		r.runs.release(id)
		return err
	}

	go func() {
		defer r.runs.release(id)

		ctx := context.Background()
		report, err := r.pipeline.Run(runCtx, id)
		if err != nil {
			if errors.Is(err, pipeline.ErrSuspended) {
				// Paper stays processing so Resume relaunches it.
				r.logger.Info("paper run suspended", "id", id)
				return
			}
			r.logger.Error("pipeline run failed", "id", id, "error", err)
			if setErr := r.setStatus(ctx, id, StatusRejected, err.Error()); setErr != nil {
				r.logger.Error("finalize paper status failed", "id", id, "error", setErr)
			}
			return
		}

		status := StatusRejected
		if report.Verdict == pipeline.VerdictComplete {
			status = StatusComplete
		}
		if err := r.setStatus(ctx, id, status, ""); err != nil {
			r.logger.Error("finalize paper status failed", "id", id, "error", err)
		}
	}()

	return nil
}

func (r *repo) setStatus(ctx context.Context, id uuid.UUID, status, reason string) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE papers SET status = $1, status_reason = $2, updated_at = NOW() WHERE id = $3",
			status, reason, id,
		)
		return struct{}{}, err
	})
	if err != nil {
		return repository.MapError(fmt.Errorf("set paper status: %w", err), ErrNotFound, ErrDuplicate)
	}
	return nil
}

func validateSubmission(cmd SubmitCommand) error {
	if cmd.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidSubmission)
	}
	if len(cmd.Blocks) == 0 {
		return fmt.Errorf("%w: at least one block is required", ErrInvalidSubmission)
	}

	for i, b := range cmd.Blocks {
		if b.Label == "" {
			return fmt.Errorf("%w: block %d has no label", ErrInvalidSubmission, i)
		}
		if b.Kind == "" {
			return fmt.Errorf("%w: block %s has no kind", ErrInvalidSubmission, b.Label)
		}
		if b.Content == "" {
			return fmt.Errorf("%w: block %s has no content", ErrInvalidSubmission, b.Label)
		}
	}
	return nil
}

// buildBlocks converts submissions to blocks, assigning the declaration
// ordinal used as the deterministic scheduling tie-break.
func buildBlocks(paperID uuid.UUID, subs []BlockSubmission) []blocks.Block {
	blks := make([]blocks.Block, 0, len(subs))
	for i, s := range subs {
		refs := s.References
		if refs == nil {
			refs = []string{}
		}
		blks = append(blks, blocks.Block{
			ID:         uuid.New(),
			PaperID:    paperID,
			Label:      s.Label,
			Kind:       s.Kind,
			Ordinal:    i + 1,
			Title:      s.Title,
			Content:    s.Content,
			Proof:      s.Proof,
			References: refs,
			Status:     blocks.StatusPending,
		})
	}
	return blks
}

func buildSourceKey(id uuid.UUID) string {
	return fmt.Sprintf("papers/%s/source.tex", id)
}
