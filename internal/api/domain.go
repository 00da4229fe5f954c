package api

import (
	"github.com/avid-platform/avid/internal/blocks"
	"github.com/avid-platform/avid/internal/collab"
	"github.com/avid-platform/avid/internal/config"
	"github.com/avid-platform/avid/internal/papers"
	"github.com/avid-platform/avid/internal/pipeline"
	"github.com/avid-platform/avid/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Papers papers.System
}

// NewDomain wires the verification pipeline and creates all domain systems
// from the API runtime: status store, collaborator clients, per-block
// workflow, orchestrator, and the paper system on top.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	store := blocks.NewPostgresStore(
		runtime.Database.Connection(),
		runtime.Logger,
	)

	machine := workflow.New(
		store,
		collab.NewNoveltyChecker(&cfg.Novelty, runtime.Logger),
		collab.NewFormalizer(&cfg.Formalizer, runtime.Logger),
		cfg.Pipeline.RetryPolicy(),
		runtime.Logger,
	)

	orchestrator := pipeline.New(
		store,
		machine,
		cfg.Pipeline.Workers,
		runtime.Logger,
	)

	papersSystem := papers.New(
		runtime.Database.Connection(),
		store,
		runtime.Archive,
		orchestrator,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Papers: papersSystem,
	}
}
