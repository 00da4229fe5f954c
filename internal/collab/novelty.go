package collab

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avid-platform/avid/pkg/formatting"
)

type noveltyClient struct {
	client *client
	logger *slog.Logger
}

// NewNoveltyChecker creates an HTTP client for the novelty engine.
func NewNoveltyChecker(cfg *Config, logger *slog.Logger) NoveltyChecker {
	return &noveltyClient{
		client: newClient(cfg),
		logger: logger.With("collaborator", "novelty"),
	}
}

type noveltyRequest struct {
	Content string `json:"content"`
}

func (n *noveltyClient) Check(ctx context.Context, content string) (*NoveltyResponse, error) {
	data, err := n.client.post(ctx, "/v1/novelty/check", noveltyRequest{Content: content})
	if err != nil {
		return nil, err
	}

	// The novelty judge is model-backed and occasionally fences its JSON.
	resp, err := formatting.Parse[NoveltyResponse](string(data))
	if err != nil {
		return nil, fmt.Errorf("novelty response: %w", err)
	}

	n.logger.Debug("novelty verdict received", "verdict", resp.Verdict, "confidence", resp.Confidence)
	return &resp, nil
}
