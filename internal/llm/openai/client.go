package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/llm"
)

var _ llm.Consolidator = (*Client)(nil)

// Consolidate implements llm.Consolidator over chat/completions in JSON mode.
// The API key is checked first so a missing credential never reaches the network.
func (c *Client) Consolidate(ctx context.Context, req llm.ConsolidationRequest) (entity.ConsolidatedRecord, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		c.logger.Error("llm.extract.missing_credential")
		return entity.ConsolidatedRecord{}, common.ErrMissingCredential
	}
	return llm.ConsolidateWith(ctx, c, req, c.cfg.MaxPromptChars, c.logger)
}

// Complete sends a single user message and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", common.ErrMissingCredential
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error", "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices", "raw_bytes", len(raw))
		return "", fmt.Errorf("no choices in openai response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}
