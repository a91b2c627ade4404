// Package pipeline orchestrates command generation: build the conversation,
// invoke the model backend, and gate the result behind the confirmation
// policy. It performs no retries; recovery belongs to the caller.
package pipeline

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/rs/zerolog"

	"github.com/termichan/termichan/internal/config"
	"github.com/termichan/termichan/internal/llm"
	"github.com/termichan/termichan/internal/prompt"
	"github.com/termichan/termichan/internal/safety"
)

// GeneratedCommand is the outcome of one pipeline invocation. It is owned by
// the caller; the pipeline retains nothing.
type GeneratedCommand struct {
	// Text is the command line extracted from the model response.
	Text string

	// Explanation is the optional "# Explanation:" trailer the model may
	// append, separated out so the UI can render it independently.
	Explanation string

	// RequiresConfirmation is the safety-gate verdict for Text.
	RequiresConfirmation bool

	// MatchedPrefix names the dangerous prefix that triggered the verdict,
	// if any. Diagnostic only.
	MatchedPrefix string
}

const explanationMarker = "# Explanation:"

const explainSystemPrompt = `You are termichan, an expert at explaining terminal commands.
Explain what the given command does, part by part, clearly and concisely.
Use short markdown bullet points. Do not suggest alternatives unless the command is dangerous.`

// Generator runs the generation pipeline against an injected provider and a
// read-only configuration. Safe for concurrent use.
type Generator struct {
	cfg      *config.Config
	provider llm.Provider
	env      prompt.Env
	log      zerolog.Logger
}

// New wires a Generator. The configuration is shared read-only; the provider
// carries the network side effects.
func New(cfg *config.Config, provider llm.Provider, log zerolog.Logger) *Generator {
	return &Generator{
		cfg:      cfg,
		provider: provider,
		env:      prompt.CurrentEnv(),
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// checkAPIKey is the precondition shared by every invocation: without a
// credential no request is built and no network call is attempted.
func (g *Generator) checkAPIKey() error {
	if g.cfg.LLM.APIKey == "" {
		return llm.ErrAPIKeyMissing
	}
	return nil
}

// Generate translates a natural-language request into a gated command using
// the blocking completion path.
func (g *Generator) Generate(ctx context.Context, request string) (GeneratedCommand, error) {
	if err := g.checkAPIKey(); err != nil {
		return GeneratedCommand{}, err
	}

	conv := prompt.Conversation(g.cfg.Prompt, g.env, request)
	g.log.Debug().Str("model", g.cfg.LLM.Model).Str("request", request).Msg("requesting completion")

	text, err := g.provider.Complete(ctx, conv)
	if err != nil {
		return GeneratedCommand{}, fmt.Errorf("completion failed: %w", err)
	}

	return g.Gate(text), nil
}

// Stream translates a natural-language request using the streaming path. The
// caller consumes the returned sequence (printing fragments as they arrive),
// assembles the full text, and passes it to Gate.
func (g *Generator) Stream(ctx context.Context, request string) (iter.Seq2[string, error], error) {
	if err := g.checkAPIKey(); err != nil {
		return nil, err
	}

	conv := prompt.Conversation(g.cfg.Prompt, g.env, request)
	g.log.Debug().Str("model", g.cfg.LLM.Model).Str("request", request).Msg("requesting streaming completion")

	return g.provider.Stream(ctx, conv)
}

// Refine asks the model to modify a previously generated command.
func (g *Generator) Refine(ctx context.Context, command, modification string) (GeneratedCommand, error) {
	if err := g.checkAPIKey(); err != nil {
		return GeneratedCommand{}, err
	}

	conv := llm.Conversation{
		llm.System(prompt.RenderSystem(g.cfg.Prompt.SystemPrompt, g.env)),
		llm.Assistant(command),
		llm.User("Modify the command above: " + modification + "\nRespond with only the modified command."),
	}
	g.log.Debug().Str("command", command).Str("modification", modification).Msg("refining command")

	text, err := g.provider.Complete(ctx, conv)
	if err != nil {
		return GeneratedCommand{}, fmt.Errorf("refinement failed: %w", err)
	}

	return g.Gate(text), nil
}

// Explain asks the model for a human-readable explanation of a command. The
// original request is included so the explanation can reference intent.
func (g *Generator) Explain(ctx context.Context, command, request string) (string, error) {
	if err := g.checkAPIKey(); err != nil {
		return "", err
	}

	conv := llm.Conversation{
		llm.System(explainSystemPrompt),
		llm.User(fmt.Sprintf("Request: %s\nCommand: %s", request, command)),
	}

	text, err := g.provider.Complete(ctx, conv)
	if err != nil {
		return "", fmt.Errorf("explanation failed: %w", err)
	}
	return text, nil
}

// Gate splits the raw model output into command and optional explanation and
// applies the confirmation policy to the command text.
func (g *Generator) Gate(raw string) GeneratedCommand {
	text, explanation := splitExplanation(raw)

	gc := GeneratedCommand{
		Text:        text,
		Explanation: explanation,
	}
	gc.RequiresConfirmation = safety.RequiresConfirmation(
		g.cfg.Security.ConfirmationMode, gc.Text, g.cfg.Security.DangerousCommands)
	if gc.RequiresConfirmation {
		gc.MatchedPrefix, _ = safety.MatchedPrefix(gc.Text, g.cfg.Security.DangerousCommands)
	}

	g.log.Debug().
		Str("command", gc.Text).
		Bool("requires_confirmation", gc.RequiresConfirmation).
		Str("matched_prefix", gc.MatchedPrefix).
		Msg("gated command")

	return gc
}

// splitExplanation separates the "# Explanation:" trailer the system prompt
// invites the model to add. Inline "# Be careful:" comments stay with the
// command.
func splitExplanation(raw string) (command, explanation string) {
	idx := strings.Index(raw, explanationMarker)
	if idx < 0 {
		return strings.TrimSpace(raw), ""
	}
	command = strings.TrimSpace(raw[:idx])
	explanation = strings.TrimSpace(strings.TrimPrefix(raw[idx:], explanationMarker))
	return command, explanation
}
