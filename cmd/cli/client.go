package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/iho/timebank/internal/adapter/http/dto"
	"github.com/iho/timebank/internal/adapter/http/middleware"
)

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
}

func (e *apiError) Error() string {
	msg := e.Body.Message
	if msg == "" {
		msg = e.Body.Error
	}
	if e.Body.Kind != "" {
		return fmt.Sprintf("%s (HTTP %d, %s)", msg, e.Status, e.Body.Kind)
	}
	return fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
}

type apiClient struct {
	http    *http.Client
	baseURL string
	actor   string
	raw     []byte
}

func newAPIClient(opts *options) *apiClient {
	return &apiClient{
		http:    &http.Client{Timeout: opts.timeout},
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		actor:   opts.actor,
	}
}

func (c *apiClient) requireActor() error {
	if c.actor == "" {
		return errors.New("this command needs an acting account: pass --as or set TIMEBANK_ACCOUNT")
	}
	return nil
}

// do sends body as JSON and decodes a 2xx response into out. Mutating
// requests carry a fresh Idempotency-Key so a retried command cannot post
// twice.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.actor != "" {
		req.Header.Set(middleware.ActorHeader, c.actor)
	}
	if method == http.MethodPost {
		req.Header.Set(middleware.IdempotencyKeyHeader, ulid.Make().String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.raw, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(c.raw, &apiErr.Body); jsonErr != nil || apiErr.Body.Error == "" {
			apiErr.Body.Error = strings.TrimSpace(string(c.raw))
		}
		return apiErr
	}

	if out == nil || len(c.raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// printRaw writes the last response body, indented.
func (c *apiClient) printRaw(w io.Writer) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, c.raw, "", "  "); err != nil {
		_, err = w.Write(c.raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
