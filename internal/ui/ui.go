package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/termichan/termichan/internal/config"
)

// Action represents the user's choice for a generated command.
type Action int

const (
	ActionRun Action = iota
	ActionModify
	ActionExplain
	ActionCopy
	ActionCancel
)

// ConfirmCommand displays the generated command and asks the user what to do.
// matchedPrefix, when non-empty, names the dangerous prefix that forced the
// confirmation.
func ConfirmCommand(command string, uiCfg config.UIConfig, matchedPrefix string) (Action, error) {
	cyan := color.New(color.FgCyan, color.Bold)
	if !uiCfg.CompactMode {
		fmt.Println()
	}
	cyan.Println("Generated command:")
	fmt.Printf("  %s\n", RenderCommand(command, uiCfg))

	if matchedPrefix != "" {
		yellow := color.New(color.FgYellow, color.Bold)
		yellow.Printf("⚠ matches dangerous prefix %q\n", matchedPrefix)
	}
	if !uiCfg.CompactMode {
		fmt.Println()
	}

	var choice string
	prompt := &survey.Select{
		Message: "What would you like to do?",
		Options: []string{
			"Run it",
			"Modify it",
			"Explain it",
			"Copy to clipboard",
			"Cancel",
		},
	}

	if err := survey.AskOne(prompt, &choice); err != nil {
		return ActionCancel, err
	}

	switch choice {
	case "Run it":
		return ActionRun, nil
	case "Modify it":
		return ActionModify, nil
	case "Explain it":
		return ActionExplain, nil
	case "Copy to clipboard":
		return ActionCopy, nil
	default:
		return ActionCancel, nil
	}
}

// PromptForModification asks the user how to modify the command.
func PromptForModification() (string, error) {
	var modification string
	prompt := &survey.Input{
		Message: "How would you like to modify the command?",
	}

	if err := survey.AskOne(prompt, &modification, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}

	return modification, nil
}

// RenderCommand formats a command per the UI configuration. Highlighting is
// only attempted on a terminal; piped output stays plain.
func RenderCommand(command string, uiCfg config.UIConfig) string {
	switch uiCfg.OutputFormat {
	case config.FormatMarkdown:
		return "```sh\n" + command + "\n```"
	case config.FormatRich:
		if uiCfg.SyntaxHighlighting && isTerminal() {
			var sb strings.Builder
			if err := quick.Highlight(&sb, command, "bash", "terminal256", "monokai"); err == nil {
				return strings.TrimRight(sb.String(), "\n")
			}
		}
	}
	return command
}

// RenderExplanation formats model-provided markdown for the terminal.
func RenderExplanation(text string, uiCfg config.UIConfig) string {
	if uiCfg.OutputFormat == config.FormatRich && isTerminal() {
		if out, err := glamour.Render(text, "dark"); err == nil {
			return strings.TrimSpace(out)
		}
	}
	return text
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShowSuccess displays a success message.
func ShowSuccess(message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("✓ %s\n", message)
}

// ShowError displays an error message.
func ShowError(message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Printf("✗ %s\n", message)
}

// ShowWarning displays a warning message.
func ShowWarning(message string) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("⚠ %s\n", message)
}

// ShowInfo displays an info message.
func ShowInfo(message string) {
	blue := color.New(color.FgBlue)
	blue.Println(message)
}
