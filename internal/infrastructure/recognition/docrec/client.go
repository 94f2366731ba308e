// Package docrec is the HTTP client for the external document recognition
// service. Recognition is the one pipeline step that is retried: transient
// failures get up to the configured attempts with exponential backoff
// before the step is considered fatal.
package docrec

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/expensedocs/internal/core/domain"
	"github.com/kirillkom/expensedocs/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
	policy     resilience.StepPolicy
}

type Options struct {
	APIKey   string
	Timeout  time.Duration
	Executor *resilience.Executor
	Policy   resilience.StepPolicy
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	executor := options.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.BreakerConfig{Enabled: false})
	}
	policy := options.Policy
	if policy.MaxAttempts == 0 {
		policy = resilience.ExponentialRetry(3, 2*time.Second, 2.0)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     options.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
		policy:     policy,
	}
}

type analyzeRequest struct {
	DocumentType string `json:"document_type"`
	Content      string `json:"content"`
}

func (c *Client) Analyze(ctx context.Context, blob []byte, docType domain.DocumentType) (domain.ExtractedFields, error) {
	request := analyzeRequest{
		DocumentType: string(docType),
		Content:      base64.StdEncoding.EncodeToString(blob),
	}

	var fields domain.ExtractedFields
	err := c.executor.Execute(ctx, "recognition.analyze", c.policy, func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/analyze", request, &fields)
	}, classifyRecognitionError)
	if err != nil {
		return domain.ExtractedFields{}, fmt.Errorf("recognition analyze: %w", err)
	}
	if fields.Confidence == nil {
		fields.Confidence = map[string]float64{}
	}
	return fields, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recognition request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPStatusError{
			Operation:  path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
