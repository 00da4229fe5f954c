package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

type formalizerClient struct {
	client *client
	logger *slog.Logger
}

// NewFormalizer creates an HTTP client for the formalization engine.
func NewFormalizer(cfg *Config, logger *slog.Logger) Formalizer {
	return &formalizerClient{
		client: newClient(cfg),
		logger: logger.With("collaborator", "formalizer"),
	}
}

func (f *formalizerClient) Formalize(ctx context.Context, req FormalizeRequest) (*FormalizeResponse, error) {
	data, err := f.client.post(ctx, "/v1/formalize", req)
	if err != nil {
		return nil, err
	}

	var resp FormalizeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("formalize response: %w", err)
	}

	f.logger.Debug("formalization result received",
		"outcome", resp.Outcome,
		"permanent", resp.Permanent,
		"context_size", len(req.Context),
	)
	return &resp, nil
}
