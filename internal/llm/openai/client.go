package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/llm"
)

// Extract implements llm.FieldExtractor over chat/completions with JSON
// Schema mode. Per-call options override the configured defaults; the
// credential may be overridden per call and falls back to the configured one.
func (c *Client) Extract(ctx context.Context, text string, images []llm.VisionImage, opts llm.Options) (map[string]any, error) {
	rid := uuid.New().String()
	start := time.Now()

	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(c.cfg.APIKey)
	}
	if apiKey == "" {
		return nil, common.Errorf(common.KindMissingCredential,
			"no OpenAI API key configured and none supplied with the request")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = c.cfg.Model
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", llm.ProviderOpenAI,
		"model", model,
		"text_len", len(text),
		"images", len(images),
	)

	body := map[string]any{
		"model": model,
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": userContent(text, images)},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   c.cfg.SchemaName,
				"schema": llm.BuildInvoiceSchema(),
				"strict": true,
			},
		},
		"temperature":       orDefault(opts.Temperature, c.defaultTemperature),
		"top_p":             orDefault(opts.TopP, c.defaultTopP),
		"frequency_penalty": orDefault(opts.FrequencyPenalty, c.defaultFrequencyPenalty),
		"presence_penalty":  orDefault(opts.PresencePenalty, c.defaultPresencePenalty),
	}
	// "none" means the field must not appear in the request at all.
	if effort := c.reasoningEffort(opts); effort != "none" {
		body["reasoning_effort"] = effort
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body,
		map[string]string{"Authorization": "Bearer " + apiKey}, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("openai chat/completions: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, common.NewError(common.KindInvalidModelOutput, "decode openai response", err)
	}
	if len(cc.Choices) == 0 {
		return nil, common.Errorf(common.KindInvalidModelOutput, "no choices in openai response")
	}

	fields, err := llm.ParseModelResponse(cc.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("llm.extract.invalid_output",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid, "fields", len(fields), "elapsed_ms", time.Since(start).Milliseconds())
	return fields, nil
}

func (c *Client) reasoningEffort(opts llm.Options) string {
	if opts.ReasoningEffort != "" {
		return opts.ReasoningEffort
	}
	return c.defaultReasoningEffort
}

// userContent returns a plain string for text-only calls and multimodal
// content parts when vision images are attached.
func userContent(text string, images []llm.VisionImage) any {
	if len(images) == 0 {
		return text
	}
	parts := []map[string]any{{"type": "text", "text": text}}
	for _, img := range images {
		parts = append(parts, map[string]any{
			"type": "image_url",
			"image_url": map[string]any{
				"url": fmt.Sprintf("data:%s;base64,%s", img.MediaType, img.Data),
			},
		})
	}
	return parts
}

func orDefault(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
