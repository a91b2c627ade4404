// Package openai implements llm.Provider against the OpenAI Chat Completions
// API. Any OpenAI-compatible endpoint works by overriding the base URL.
package openai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/termichan/termichan/internal/config"
	"github.com/termichan/termichan/internal/llm"
)

const (
	// DefaultBaseURL is used when llm.base_url is not configured.
	DefaultBaseURL = "https://api.openai.com/v1"

	completionsPath = "/chat/completions"
)

var _ llm.Provider = (*Client)(nil)

// Client talks to an OpenAI-compatible chat-completions endpoint. It holds no
// mutable state after construction and is safe for concurrent use.
type Client struct {
	baseURL string
	cfg     config.LLMConfig
	httpc   *http.Client
}

// New builds a Client from the LLM and network sections of the configuration.
// It fails with llm.ErrAPIKeyMissing when no credential is configured.
func New(llmCfg config.LLMConfig, netCfg config.NetworkConfig) (*Client, error) {
	if llmCfg.APIKey == "" {
		return nil, llm.ErrAPIKeyMissing
	}

	baseURL := llmCfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpc, err := newHTTPClient(llmCfg, netCfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: baseURL,
		cfg:     llmCfg,
		httpc:   httpc,
	}, nil
}

// newHTTPClient applies the timeout, proxy and TLS settings from the config.
func newHTTPClient(llmCfg config.LLMConfig, netCfg config.NetworkConfig) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if netCfg.Proxy != "" {
		proxyURL, err := url.Parse(netCfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", netCfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	if netCfg.TrustInvalidCerts {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	return &http.Client{
		Timeout:   time.Duration(llmCfg.TimeoutSecs) * time.Second,
		Transport: transport,
	}, nil
}

// --- request types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	TopP        *float32      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message      respMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type respMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// buildRequest translates a conversation into the wire payload. Temperature
// is always sent; top_p and max_tokens are sent only when configured so that
// absence never overrides a provider default.
func (c *Client) buildRequest(conv llm.Conversation, stream bool) (chatRequest, error) {
	if len(conv) == 0 {
		return chatRequest{}, llm.ErrInvalidConversation
	}

	req := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      stream,
		Messages:    make([]chatMessage, len(conv)),
	}
	for i, m := range conv {
		req.Messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}

	return req, nil
}

// do sends the payload and returns the raw response. Non-2xx statuses and
// transport failures are surfaced uniformly as *llm.APIError.
func (c *Client) do(ctx context.Context, payload chatRequest, accept string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &llm.APIError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &llm.APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(diag))}
	}

	return resp, nil
}

// Complete performs a blocking chat completion and returns the trimmed text
// of the first choice. Additional choices are ignored: the system is
// single-answer by design.
func (c *Client) Complete(ctx context.Context, conv llm.Conversation) (string, error) {
	payload, err := c.buildRequest(conv, false)
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, payload, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &llm.APIError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(parsed.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	content := parsed.Choices[0].Message.Content
	if content == nil {
		return "", llm.ErrEmptyResponse
	}
	text := strings.TrimSpace(*content)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}

	return text, nil
}
