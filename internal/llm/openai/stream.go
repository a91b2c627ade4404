package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/termichan/termichan/internal/llm"
)

// Server-sent event frames as emitted by the chat-completions endpoint with
// "stream": true. Each frame carries at most one content delta.
type streamFrame struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Delta        streamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type streamDelta struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

const doneSentinel = "[DONE]"

// Stream performs a streaming chat completion. The returned sequence is lazy,
// finite and single-pass: each element is either a content delta or a
// per-frame error. Frames without a content delta yield llm.ErrEmptyResponse
// and the stream continues, except the provider's final frame (non-empty
// finish_reason) and the [DONE] sentinel, which end the sequence. A transport
// failure mid-stream yields one terminal *llm.APIError element.
//
// The sequence owns the underlying connection. Starting it guarantees the
// response body is closed when iteration ends, including on early break. A
// caller that never starts the sequence must cancel ctx to release the
// connection; until then it stays held, bounded by the configured request
// timeout.
func (c *Client) Stream(ctx context.Context, conv llm.Conversation) (iter.Seq2[string, error], error) {
	payload, err := c.buildRequest(conv, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, payload, "text/event-stream")
	if err != nil {
		return nil, err
	}

	// Close the body on cancellation so an abandoned, never-started sequence
	// does not hold its connection until the client timeout fires.
	stop := context.AfterFunc(ctx, func() { _ = resp.Body.Close() })

	seq := func(yield func(string, error) bool) {
		defer stop()
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, ":") {
				continue
			}
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == doneSentinel {
				return
			}

			var frame streamFrame
			if err := json.Unmarshal([]byte(data), &frame); err != nil {
				yield("", &llm.APIError{Err: fmt.Errorf("failed to decode stream frame: %w", err)})
				return
			}

			if len(frame.Choices) == 0 {
				if !yield("", llm.ErrEmptyResponse) {
					return
				}
				continue
			}

			choice := frame.Choices[0]
			if choice.Delta.Content == nil {
				if choice.FinishReason != "" {
					// Final frame: end of stream, not an error.
					return
				}
				// Metadata-only frame (role announcement etc.): surfaced
				// strictly rather than silently dropped.
				if !yield("", llm.ErrEmptyResponse) {
					return
				}
				continue
			}

			if !yield(*choice.Delta.Content, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield("", &llm.APIError{Err: err})
		}
	}

	return seq, nil
}
