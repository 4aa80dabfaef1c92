package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/verifactura/invoice-extractor/internal/common"
)

const readModelID = "prebuilt-read"

// AzureConfig is the minimum needed to talk to an Azure document-analysis
// resource.
type AzureConfig struct {
	Endpoint   string
	Key        string
	APIVersion string
	Timeout    time.Duration
}

// AzureClient runs the prebuilt-read model against the Azure Document
// Intelligence REST API and concatenates the recognized lines.
type AzureClient struct {
	cfg          AzureConfig
	httpClient   *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
}

func NewAzureClient(cfg AzureConfig, logger *slog.Logger) *AzureClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-07-31"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &AzureClient{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
		pollInterval: time.Second,
	}
}

type analyzeLine struct {
	Content string `json:"content"`
}

type analyzePage struct {
	Lines []analyzeLine `json:"lines"`
}

type analyzePayload struct {
	Pages []analyzePage `json:"pages"`
}

type analyzeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type analyzeResult struct {
	Status        string          `json:"status"`
	Error         *analyzeError   `json:"error"`
	AnalyzeResult *analyzePayload `json:"analyzeResult"`
}

// ExtractText submits the document and polls the analyze operation until it
// completes. If the service rejects the declared content type, the request is
// retried once without one; some backends refuse declared types for certain
// binary payloads.
func (c *AzureClient) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	rid := uuid.New().String()

	opURL, err := c.beginAnalyze(ctx, rid, data, contentType)
	if err != nil && contentType != "" && contentType != "application/octet-stream" && isContentTypeRejection(err) {
		c.logger.Warn("ocr.analyze.content_type_rejected",
			"req_id", rid, "content_type", contentType, "error", err)
		opURL, err = c.beginAnalyze(ctx, rid, data, "")
	}
	if err != nil {
		return "", err
	}

	result, err := c.pollResult(ctx, rid, opURL)
	if err != nil {
		return "", err
	}

	var lines []string
	if result.AnalyzeResult != nil {
		for _, page := range result.AnalyzeResult.Pages {
			for _, line := range page.Lines {
				lines = append(lines, line.Content)
			}
		}
	}
	text := strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
	c.logger.Debug("ocr.analyze.ok", "req_id", rid, "lines", len(lines), "text_len", len(text))
	return text, nil
}

func (c *AzureClient) beginAnalyze(ctx context.Context, rid string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), readModelID, c.cfg.APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("ocr.analyze.request",
		"req_id", rid, "content_type", contentType, "bytes", len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &statusError{status: resp.StatusCode, body: string(body)}
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("analyze response missing Operation-Location")
	}
	return opURL, nil
}

func (c *AzureClient) pollResult(ctx context.Context, rid, opURL string) (*analyzeResult, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build poll request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("poll analyze operation: %w", err)
		}
		raw, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read poll response: %w", readErr)
		}
		if resp.StatusCode/100 != 2 {
			return nil, &statusError{status: resp.StatusCode, body: string(raw)}
		}

		var result analyzeResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("decode poll response: %w", err)
		}

		switch result.Status {
		case "succeeded":
			return &result, nil
		case "failed":
			msg := "analyze operation failed"
			if result.Error != nil {
				msg = fmt.Sprintf("analyze operation failed: %s: %s", result.Error.Code, result.Error.Message)
			}
			return nil, common.NewError(common.KindOCRExtractionFailed, msg, nil)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ocr service status %d: %s", e.status, truncate(e.body, 512))
}

// isContentTypeRejection matches the 4xx the service returns when it refuses
// the declared content type for a payload.
func isContentTypeRejection(err error) bool {
	se, ok := err.(*statusError)
	if !ok {
		return false
	}
	if se.status != http.StatusBadRequest && se.status != http.StatusUnsupportedMediaType {
		return false
	}
	body := strings.ToLower(se.body)
	return se.status == http.StatusUnsupportedMediaType ||
		strings.Contains(body, "content type") || strings.Contains(body, "contenttype")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
