// Package llm wraps the hosted text-generation API behind a single
// structured-output call. Every call carries a bounded timeout and a strict
// JSON schema; callers own the fallback behavior when a call fails.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/config"
)

// Caller is the structured-output contract the services depend on. Tests
// substitute a fake.
type Caller interface {
	GenerateJSON(ctx context.Context, req Request, out interface{}) error
}

// Request describes one structured-output generation
type Request struct {
	SchemaName   string
	Description  string
	Instructions string
	Input        string
	Schema       map[string]interface{}
	MaxTokens    int64
}

// Client is the production Caller backed by the OpenAI responses API
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
}

// NewClient builds a production client from configuration
func NewClient(cfg *config.LLMConfig) *Client {
	return &Client{
		api:     openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   cfg.Model,
		timeout: cfg.CallTimeout,
	}
}

// GenerateJSON issues one generation call with a strict JSON schema response
// format and decodes the output into out. No retries: a failed or malformed
// response is returned as an error and the caller substitutes its documented
// defaults.
func (c *Client) GenerateJSON(ctx context.Context, req Request, out interface{}) error {
	if req.Input == "" {
		return errors.New("llm: empty input")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1200
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        req.SchemaName,
			Schema:      req.Schema,
			Strict:      openai.Bool(true),
			Description: openai.String(req.Description),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(maxTokens),
		Instructions:    openai.String(req.Instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.Input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := c.api.Responses.New(ctx, params)
	if err != nil {
		return fmt.Errorf("llm: %s call failed: %w", req.SchemaName, err)
	}

	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return fmt.Errorf("llm: %s call returned empty output", req.SchemaName)
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("llm: unmarshal %s output: %w", req.SchemaName, err)
	}

	return nil
}
