package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/termichan/termichan/internal/config"
)

func TestRenderCommandPlain(t *testing.T) {
	uiCfg := config.UIConfig{OutputFormat: config.FormatPlain, SyntaxHighlighting: true}
	assert.Equal(t, "ls -la", RenderCommand("ls -la", uiCfg))
}

func TestRenderCommandMarkdown(t *testing.T) {
	uiCfg := config.UIConfig{OutputFormat: config.FormatMarkdown}
	assert.Equal(t, "```sh\nls -la\n```", RenderCommand("ls -la", uiCfg))
}

func TestRenderCommandRichWithoutTerminal(t *testing.T) {
	// Test output is not a terminal, so rich mode degrades to plain text.
	uiCfg := config.UIConfig{OutputFormat: config.FormatRich, SyntaxHighlighting: true}
	assert.Equal(t, "ls -la", RenderCommand("ls -la", uiCfg))
}

func TestRenderExplanationWithoutTerminal(t *testing.T) {
	uiCfg := config.UIConfig{OutputFormat: config.FormatRich}
	assert.Equal(t, "- lists files", RenderExplanation("- lists files", uiCfg))
}
