// Package llm defines the provider-agnostic contract for command generation:
// role-tagged conversations, the error taxonomy, and the Provider interface
// implemented by concrete backends.
package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged unit of conversation context.
type Message struct {
	Role    Role
	Content string
}

// Conversation is an ordered list of messages. Order is semantically
// meaningful (system message first) and is preserved into provider requests.
type Conversation []Message

// System, User and Assistant are shorthand constructors for messages.
func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Provider is the capability a model backend must offer. Implementations are
// selected by the configured provider tag; see New in the factory below.
//
// Stream returns a lazy, finite, single-pass sequence. Each element is either
// a text fragment or a per-frame error; a transport failure mid-stream yields
// one terminal error element. Breaking out of the iteration early releases
// the underlying connection.
type Provider interface {
	Complete(ctx context.Context, conv Conversation) (string, error)
	Stream(ctx context.Context, conv Conversation) (iter.Seq2[string, error], error)
}

// Factory builds a Provider from the registered constructor for a provider
// tag. Registration keeps the concrete backends out of this package so the
// orchestrator never depends on one vendor's request shapes.
type Factory func() (Provider, error)

var factories = map[string]Factory{}

// Register associates a provider tag with a constructor. Called from the
// backend packages' wiring, typically in main.
func Register(tag string, f Factory) {
	factories[strings.ToLower(tag)] = f
}

// New constructs the Provider for the given tag.
func New(tag string) (Provider, error) {
	f, ok := factories[strings.ToLower(tag)]
	if !ok {
		return nil, fmt.Errorf("unsupported llm provider %q", tag)
	}
	return f()
}
