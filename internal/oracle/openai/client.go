package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/citecheck/internal/oracle"
)

// VerifyCitations implements oracle.CitationVerifier over chat/completions
// with a JSON-object response format. One call per request; no retries.
func (c *Client) VerifyCitations(ctx context.Context, req oracle.VerifyRequest) ([]oracle.CitationRecord, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if len(req.Text) > c.cfg.MaxInputChars {
		c.log.Error("oracle.verify.input_too_large",
			"req_id", rid, "text_len", len(req.Text), "limit", c.cfg.MaxInputChars)
		return nil, nil, fmt.Errorf("%w: %d chars exceeds limit of %d",
			oracle.ErrInputTooLarge, len(req.Text), c.cfg.MaxInputChars)
	}

	c.log.Info("oracle.verify.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"hint", req.DocumentHint,
	)

	schema := oracle.BuildCitationJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": oracle.BuildSystemPrompt()},
			{"role": "user", "content": oracle.BuildUserPrompt(req.Text, req.DocumentHint) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, code, httpErr := oracle.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if httpErr != nil {
		classified := classifyTransportError(httpErr, code)
		c.log.Error("oracle.verify.http_error",
			"req_id", rid, "status", code, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, classified
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("oracle.verify.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("%w: decode response envelope: %v", oracle.ErrMalformed, err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("oracle.verify.no_choices", "req_id", rid, "raw", string(raw))
		return nil, raw, fmt.Errorf("%w: no choices in response", oracle.ErrMalformed)
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	// Validate strictly first.
	if err := oracle.ValidateJSONAgainstSchema(schema, content); err != nil {
		if c.cfg.StrictFields {
			c.log.Error("oracle.verify.schema_validation_failed",
				"req_id", rid, "error", err, "content", string(content))
			return nil, content, fmt.Errorf("%w: %v", oracle.ErrMalformed, err)
		}
		// Lenient pass: drop/normalize optional offenders and re-validate.
		cleaned, dropped, sErr := oracle.SanitizeResponse(content)
		if sErr != nil {
			c.log.Error("oracle.verify.sanitize_failed", "req_id", rid, "error", sErr)
			return nil, content, fmt.Errorf("%w: %v", oracle.ErrMalformed, sErr)
		}
		if vErr := oracle.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("oracle.verify.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(content),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, content, fmt.Errorf("%w: %v", oracle.ErrMalformed, vErr)
		}
		c.log.Warn("oracle.verify.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		content = cleaned
	}

	var payload struct {
		Citations []oracle.CitationRecord `json:"citations"`
	}
	if err := json.Unmarshal(content, &payload); err != nil {
		c.log.Error("oracle.verify.unmarshal_failed", "req_id", rid, "error", err)
		return nil, content, fmt.Errorf("%w: unmarshal records: %v", oracle.ErrMalformed, err)
	}

	records := payload.Citations
	for i := range records {
		records[i].ID = uuid.New()
		if records[i].Status == oracle.StatusVerified || records[i].CorrectedText == "" {
			records[i].CorrectedText = records[i].OriginalText
		}
	}

	c.log.Info("oracle.verify.ok",
		"req_id", rid,
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return records, content, nil
}

// classifyTransportError maps HTTP/network failures onto the oracle taxonomy.
func classifyTransportError(err error, status int) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", oracle.ErrRateLimited, err)
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %v", oracle.ErrInputTooLarge, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	// timeouts, connection failures, 5xx
	return fmt.Errorf("%w: %v", oracle.ErrUnavailable, err)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
