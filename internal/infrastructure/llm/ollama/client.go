package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/expensedocs/internal/core/domain"
	"github.com/kirillkom/expensedocs/internal/core/ports"
	"github.com/kirillkom/expensedocs/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.BreakerConfig{Enabled: false})
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Reasoner asks the reasoning service for a category judgment in a fixed
// JSON schema. Errors propagate to the caller, which owns the fallback.
type Reasoner struct {
	client *Client
}

func NewReasoner(client *Client) *Reasoner {
	return &Reasoner{client: client}
}

// classificationSchema is the wire shape the service must return.
type classificationSchema struct {
	Category         string   `json:"category"`
	Confidence       float64  `json:"confidence"`
	TaxDeductible    bool     `json:"tax_deductible"`
	ProjectTags      []string `json:"project_tags"`
	VendorType       string   `json:"vendor_type"`
	EstimatedSavings float64  `json:"estimated_savings"`
	ExpenseType      string   `json:"expense_type"`
	LineItems        []struct {
		Description   string  `json:"description"`
		Category      string  `json:"category"`
		Confidence    float64 `json:"confidence"`
		TaxDeductible bool    `json:"tax_deductible"`
	} `json:"line_items"`
}

func (r *Reasoner) Classify(ctx context.Context, req ports.ClassificationRequest) (domain.Classification, error) {
	respText, err := r.client.generateJSON(ctx, buildClassificationPrompt(req))
	if err != nil {
		return domain.Classification{}, err
	}

	var schema classificationSchema
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &schema); err != nil {
		return domain.Classification{}, fmt.Errorf("parse classification json: %w", err)
	}

	result := domain.Classification{
		Category:         schema.Category,
		Confidence:       schema.Confidence,
		TaxDeductible:    schema.TaxDeductible,
		ProjectTags:      schema.ProjectTags,
		VendorType:       schema.VendorType,
		EstimatedSavings: schema.EstimatedSavings,
		ExpenseType:      parseExpenseType(schema.ExpenseType),
	}
	for _, line := range schema.LineItems {
		result.LineItems = append(result.LineItems, domain.LineClassification{
			Description:   line.Description,
			Category:      line.Category,
			Confidence:    line.Confidence,
			TaxDeductible: line.TaxDeductible,
		})
	}
	return result, nil
}

func parseExpenseType(raw string) domain.ExpenseType {
	switch domain.ExpenseType(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.ExpenseDirect:
		return domain.ExpenseDirect
	case domain.ExpenseAdministrative:
		return domain.ExpenseAdministrative
	default:
		return domain.ExpenseIndirect
	}
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	err := c.executor.Execute(ctx, "reasoning.generate", resilience.FailFast(), func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", reqBody, &response)
	}, classifyReasoningError)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
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

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reasoning request: %w", err)
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

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
