// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the local Ollama daemon.
//
// Every operation takes a context.Context and returns a *ClientError on
// failure. There is exactly one blocking request per user turn; offloading
// from the UI goroutine is the caller's concern (a tea.Cmd in practice).
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultHost is the standard local Ollama endpoint.
const DefaultHost = "http://127.0.0.1:11434"

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig configures the Ollama client.
type ClientConfig struct {
	Host    string
	Timeout time.Duration // per-request timeout for non-streaming calls
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Host:    DefaultHost,
		Timeout: 120 * time.Second,
	}
}

// Client talks to a single Ollama daemon.
type Client struct {
	host       string
	httpClient *http.Client
	// pullClient has no timeout: model downloads can run for many minutes.
	pullClient *http.Client
}

// NewClient creates a client with the given configuration. Zero values fall
// back to defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		host:       strings.TrimRight(cfg.Host, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		pullClient: &http.Client{},
	}
}

// Host returns the configured daemon address.
func (c *Client) Host() string {
	return c.host
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning reports whether the daemon answers on its root endpoint.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/", nil)
	if err != nil {
		return newError(ErrTypeNetwork, "build health request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport("health check", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return newError(ErrTypeNotRunning, fmt.Sprintf("daemon answered %d", resp.StatusCode), nil)
	}
	return nil
}

// =============================================================================
// MODEL LISTING
// =============================================================================

// ListModels returns the locally installed models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return nil, newError(ErrTypeNetwork, "build list request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport("list models", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var list ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, newError(ErrTypeParse, "decode model list", err)
	}
	return list.Models, nil
}

// HasModel reports whether the named model is installed. Tag-less names
// match any tag of the same base model.
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	base := strings.SplitN(name, ":", 2)[0]
	for _, m := range models {
		if m.Name == name || strings.SplitN(m.Name, ":", 2)[0] == base {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends a non-streaming chat request and blocks until the full response
// arrives. This is the one external call per user turn.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, opts *Options) (*ChatResponse, error) {
	reqBody := ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  opts,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, newError(ErrTypeParse, "encode chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrTypeNetwork, "build chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport("chat", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, newError(ErrTypeParse, "decode chat response", err)
	}
	return &chatResp, nil
}

// Generate sends a non-streaming one-shot completion request.
func (c *Client) Generate(ctx context.Context, greq GenerateRequest) (*GenerateResponse, error) {
	greq.Stream = false
	body, err := json.Marshal(greq)
	if err != nil {
		return nil, newError(ErrTypeParse, "encode generate request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrTypeNetwork, "build generate request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport("generate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, newError(ErrTypeParse, "decode generate response", err)
	}
	return &genResp, nil
}

// =============================================================================
// PULL
// =============================================================================

// Pull downloads a model, invoking progress for each status chunk the daemon
// streams back. Blocks until the download completes or ctx is cancelled.
func (c *Client) Pull(ctx context.Context, model string, progress func(PullProgress)) error {
	body, err := json.Marshal(PullRequest{Model: model, Stream: true})
	if err != nil {
		return newError(ErrTypeParse, "encode pull request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return newError(ErrTypeNetwork, "build pull request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.pullClient.Do(req)
	if err != nil {
		return classifyTransport("pull", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return newError(ErrTypeTimeout, "pull cancelled", ctx.Err())
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk PullProgress
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue // skip malformed lines
		}
		if chunk.Error != "" {
			return newError(ErrTypeAPI, chunk.Error, nil)
		}
		if progress != nil {
			progress(chunk)
		}
	}
	if err := scanner.Err(); err != nil {
		return classifyTransport("pull stream", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// classifyTransport maps transport errors onto the client error taxonomy.
func classifyTransport(op string, err error) *ClientError {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return newError(ErrTypeTimeout, op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(ErrTypeTimeout, op, err)
	case errors.Is(err, context.Canceled):
		return newError(ErrTypeTimeout, op+" cancelled", err)
	default:
		// Connection refused and friends: the daemon is not up.
		if strings.Contains(err.Error(), "connection refused") {
			return newError(ErrTypeNotRunning, op, err)
		}
		return newError(ErrTypeNetwork, op, err)
	}
}

// decodeAPIError turns a non-200 response into a typed error.
func decodeAPIError(resp *http.Response) *ClientError {
	var payload ollamaError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error == "" {
		payload.Error = fmt.Sprintf("daemon answered %d", resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNotFound || strings.Contains(payload.Error, "not found") {
		return newError(ErrTypeModelNotFound, payload.Error, nil)
	}
	return newError(ErrTypeAPI, payload.Error, nil)
}
