// Package prompt renders the configured prompt templates into a conversation.
package prompt

import (
	"os"
	"runtime"
	"strings"

	"github.com/termichan/termichan/internal/config"
	"github.com/termichan/termichan/internal/llm"
)

// Env is the runtime environment substituted into the system prompt.
type Env struct {
	OS    string
	Shell string
	Pwd   string
}

// CurrentEnv discovers the environment of the running process.
func CurrentEnv() Env {
	shell := os.Getenv("SHELL")
	if shell == "" {
		if runtime.GOOS == "windows" {
			shell = "cmd"
		} else {
			shell = "/bin/sh"
		}
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	return Env{OS: runtime.GOOS, Shell: shell, Pwd: pwd}
}

// RenderSystem substitutes {os}, {shell} and {pwd} in the system prompt.
func RenderSystem(tmpl string, env Env) string {
	return strings.NewReplacer(
		"{os}", env.OS,
		"{shell}", env.Shell,
		"{pwd}", env.Pwd,
	).Replace(tmpl)
}

// RenderUser substitutes {user_input} in the user prompt template. A template
// without the placeholder falls back to the raw input so a misconfigured
// template never drops the request.
func RenderUser(tmpl, userInput string) string {
	if !strings.Contains(tmpl, "{user_input}") {
		return userInput
	}
	return strings.ReplaceAll(tmpl, "{user_input}", userInput)
}

// Conversation builds the two-message conversation for a generation request:
// rendered system prompt first, then the rendered user request.
func Conversation(p config.PromptConfig, env Env, userInput string) llm.Conversation {
	return llm.Conversation{
		llm.System(RenderSystem(p.SystemPrompt, env)),
		llm.User(RenderUser(p.UserPromptTemplate, userInput)),
	}
}
