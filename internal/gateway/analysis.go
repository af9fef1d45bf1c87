package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type submitRequest struct {
	DocumentNumbers []string `json:"document_numbers"`
}

// Submit sends the document numbers for analysis and returns the decoded raw
// result. An empty list is rejected before any network call. Numbers in the
// result are kept as json.Number.
func (c *Client) Submit(ctx context.Context, numbers []string) (any, error) {
	if len(numbers) == 0 {
		return nil, ErrEmptySelection
	}

	payload, err := json.Marshal(submitRequest{DocumentNumbers: numbers})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Info("submitting analysis", "documents", len(numbers))

	resp, err := c.do(ctx, http.MethodPost, c.generateURL, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}

	if resp.status < 200 || resp.status >= 300 {
		return nil, newServiceError(resp)
	}

	raw, err := decodeJSON(resp.body)
	if err != nil {
		return nil, &ServiceError{
			StatusCode: resp.status,
			RawBody:    string(resp.body),
		}
	}

	if err := checkContract(resp.body); err != nil {
		c.logger.Warn("analysis response does not match expected shape", "error", err)
	}

	return raw, nil
}

// newServiceError builds a ServiceError, keeping the JSON body when it parses.
func newServiceError(resp *response) *ServiceError {
	se := &ServiceError{
		StatusCode: resp.status,
		RawBody:    strings.TrimSpace(string(resp.body)),
	}
	if body, err := decodeJSON(resp.body); err == nil {
		se.Body = body
	}
	return se
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
