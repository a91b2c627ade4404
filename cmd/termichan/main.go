package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/termichan/termichan/internal/config"
	"github.com/termichan/termichan/internal/executor"
	"github.com/termichan/termichan/internal/history"
	"github.com/termichan/termichan/internal/llm"
	"github.com/termichan/termichan/internal/llm/openai"
	"github.com/termichan/termichan/internal/pipeline"
	"github.com/termichan/termichan/internal/ui"
)

var (
	// version is set by goreleaser at build time
	version = "dev"

	// CLI flags
	configPath string
	streamMode bool
	debug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "termichan [request]",
		Short:   "Natural language interface for your terminal",
		Long:    "termichan translates natural language into shell commands using an OpenAI-compatible model",
		Version: version,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runGenerate,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default ~/.config/termichan/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.Flags().BoolVarP(&streamMode, "stream", "s", false, "Stream the command as it is generated")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE:  runConfig,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generated commands",
		RunE:  runHistory,
	}

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// loadConfig resolves the configuration for every subcommand: .env first so
// the OPENAI_API_KEY fallback can see it, then the TOML file.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// registerProviders wires the concrete backends. Every tag currently maps to
// the OpenAI-compatible client; base_url selects the actual endpoint.
func registerProviders(cfg *config.Config) {
	openaiFactory := func() (llm.Provider, error) {
		return openai.New(cfg.LLM, cfg.Network)
	}
	llm.Register("openai", openaiFactory)
	llm.Register("custom", openaiFactory)
	llm.Register("ollama", openaiFactory)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	request := strings.Join(args, " ")
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registerProviders(cfg)
	provider, err := llm.New(cfg.LLM.Provider)
	if err != nil {
		if errors.Is(err, llm.ErrAPIKeyMissing) {
			ui.ShowError("No API key configured.")
			ui.ShowInfo("Set llm.api_key in the config file or export OPENAI_API_KEY.")
			return nil
		}
		return err
	}

	gen := pipeline.New(cfg, provider, log)

	hist, err := history.Load(cfg.History)
	if err != nil {
		ui.ShowWarning(fmt.Sprintf("History unavailable: %v", err))
		hist, _ = history.Load(config.HistoryConfig{})
	}

	ctx := context.Background()

	var gc pipeline.GeneratedCommand
	if streamMode {
		gc, err = generateStreaming(ctx, gen, request)
	} else {
		ui.ShowInfo("Thinking...")
		gc, err = gen.Generate(ctx, request)
	}
	if err != nil {
		return fmt.Errorf("failed to generate command: %w", err)
	}

	if gc.Explanation != "" && cfg.UI.ShowExplanation {
		fmt.Println(ui.RenderExplanation(gc.Explanation, cfg.UI))
	}

	if !gc.RequiresConfirmation {
		fmt.Printf("%s\n", ui.RenderCommand(gc.Text, cfg.UI))
		return runAndRecord(log, hist, request, gc, nil)
	}

	return confirmLoop(ctx, log, cfg, gen, hist, request, gc)
}

// generateStreaming prints fragments as they arrive and gates the assembled
// text. Metadata-only frames are skipped; a transport error aborts.
func generateStreaming(ctx context.Context, gen *pipeline.Generator, request string) (pipeline.GeneratedCommand, error) {
	seq, err := gen.Stream(ctx, request)
	if err != nil {
		return pipeline.GeneratedCommand{}, err
	}

	var sb strings.Builder
	for chunk, err := range seq {
		if err != nil {
			if errors.Is(err, llm.ErrEmptyResponse) {
				continue
			}
			fmt.Println()
			return pipeline.GeneratedCommand{}, err
		}
		fmt.Print(chunk)
		sb.WriteString(chunk)
	}
	fmt.Println()

	if strings.TrimSpace(sb.String()) == "" {
		return pipeline.GeneratedCommand{}, llm.ErrEmptyResponse
	}
	return gen.Gate(sb.String()), nil
}

// confirmLoop shows the command and handles run/modify/explain/copy/cancel
// until the user settles.
func confirmLoop(ctx context.Context, log zerolog.Logger, cfg *config.Config, gen *pipeline.Generator, hist *history.History, request string, gc pipeline.GeneratedCommand) error {
	var modifications []string

	for {
		action, err := ui.ConfirmCommand(gc.Text, cfg.UI, gc.MatchedPrefix)
		if err != nil {
			return fmt.Errorf("failed to get user confirmation: %w", err)
		}

		switch action {
		case ui.ActionRun:
			return runAndRecord(log, hist, request, gc, modifications)

		case ui.ActionExplain:
			ui.ShowInfo("Explaining...")
			explanation, err := gen.Explain(ctx, gc.Text, request)
			if err != nil {
				ui.ShowError(fmt.Sprintf("Failed to get explanation: %v", err))
			} else {
				fmt.Println("\n" + ui.RenderExplanation(explanation, cfg.UI) + "\n")
			}

		case ui.ActionCopy:
			if err := clipboard.WriteAll(gc.Text); err != nil {
				ui.ShowError(fmt.Sprintf("Failed to copy to clipboard: %v", err))
			} else {
				ui.ShowSuccess("Command copied to clipboard!")
			}

		case ui.ActionModify:
			modRequest, err := ui.PromptForModification()
			if err != nil {
				return fmt.Errorf("failed to get modification: %w", err)
			}
			modifications = append(modifications, modRequest)

			ui.ShowInfo("Refining...")
			gc, err = gen.Refine(ctx, gc.Text, modRequest)
			if err != nil {
				return fmt.Errorf("failed to refine command: %w", err)
			}

		case ui.ActionCancel:
			ui.ShowInfo("Cancelled.")
			hist.Add(history.NewEntry(request, gc.Text, false, gc.RequiresConfirmation, modifications))
			if err := hist.Save(); err != nil {
				log.Warn().Err(err).Msg("failed to save history")
			}
			return nil
		}
	}
}

func runAndRecord(log zerolog.Logger, hist *history.History, request string, gc pipeline.GeneratedCommand, modifications []string) error {
	if err := executor.Execute(log, gc.Text); err != nil {
		ui.ShowError(fmt.Sprintf("Command failed: %v", err))
	}

	hist.Add(history.NewEntry(request, gc.Text, true, gc.RequiresConfirmation, modifications))
	if err := hist.Save(); err != nil {
		log.Warn().Err(err).Msg("failed to save history")
	}
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path, _ = config.GetConfigPath()
	}

	apiKey := "(not set)"
	if cfg.LLM.APIKey != "" {
		apiKey = "(set)"
	}

	fmt.Printf("Config file: %s\n\n", path)
	fmt.Printf("Provider:          %s\n", cfg.LLM.Provider)
	fmt.Printf("Model:             %s\n", cfg.LLM.Model)
	fmt.Printf("API key:           %s\n", apiKey)
	if cfg.LLM.BaseURL != "" {
		fmt.Printf("Base URL:          %s\n", cfg.LLM.BaseURL)
	}
	fmt.Printf("Temperature:       %g\n", cfg.LLM.Temperature)
	if cfg.LLM.TopP != nil {
		fmt.Printf("Top-p:             %g\n", *cfg.LLM.TopP)
	}
	if cfg.LLM.MaxTokens != nil {
		fmt.Printf("Max tokens:        %d\n", *cfg.LLM.MaxTokens)
	}
	fmt.Printf("Timeout:           %ds\n", cfg.LLM.TimeoutSecs)
	fmt.Printf("Confirmation mode: %s\n", cfg.Security.ConfirmationMode)
	fmt.Printf("Dangerous prefixes: %d configured\n", len(cfg.Security.DangerousCommands))
	fmt.Printf("History:           enabled=%v path=%s max=%d\n",
		cfg.History.Enabled, cfg.History.FilePath, cfg.History.MaxEntries)
	fmt.Printf("Output format:     %s\n", cfg.UI.OutputFormat)

	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	hist, err := history.Load(cfg.History)
	if err != nil {
		return err
	}

	if len(hist.Entries) == 0 {
		ui.ShowInfo("No history yet.")
		return nil
	}

	for _, e := range hist.Entries {
		status := " "
		if e.Executed {
			status = "✓"
		}
		fmt.Printf("%s %s  %q → %s\n", status, e.Timestamp.Format("2006-01-02 15:04"), e.Request, e.Command)
	}

	return nil
}
