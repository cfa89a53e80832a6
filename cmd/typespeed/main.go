// Package main provides the CLI entrypoint for typespeed.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/typespeed/internal/config"
	"github.com/verte-zerg/typespeed/internal/corpus"
	"github.com/verte-zerg/typespeed/internal/eventlog"
	"github.com/verte-zerg/typespeed/internal/generator"
	"github.com/verte-zerg/typespeed/internal/lineui"
	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/stats"
	"github.com/verte-zerg/typespeed/internal/tui"
	"github.com/verte-zerg/typespeed/internal/typingtest"
)

var (
	practiceCorpus    string
	practiceTimeLimit time.Duration
	practiceLog       string
	practiceSeed      int64
	practicePlain     bool

	listCorpus string

	scoreReference string
	scoreTyped     string
	scoreElapsed   time.Duration
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typespeed",
		Short:         "Typing speed and accuracy test",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceCorpus, "corpus", "", "sentence file (.txt, .toml, .yaml)")
	rootCmd.Flags().DurationVar(&practiceTimeLimit, "time-limit", 0, "submit automatically after this long (0 disables)")
	rootCmd.Flags().StringVar(&practiceLog, "log", "", "append session events as JSON lines to this file")
	rootCmd.Flags().Int64Var(&practiceSeed, "seed", 0, "random seed for sentence selection (0 uses the clock)")
	rootCmd.Flags().BoolVar(&practicePlain, "plain", false, "use the line-mode interface instead of the full-screen UI")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCorpusCmd())
	rootCmd.AddCommand(newScoreCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "corpus", &practiceCorpus, fileCfg.Practice.Corpus)
	applyStringConfig(cmd, "log", &practiceLog, fileCfg.Practice.Log)
	if fileCfg.Practice.TimeLimit != nil && !cmd.Flags().Changed("time-limit") {
		practiceTimeLimit = fileCfg.Practice.TimeLimit.Duration
	}

	cfg := model.Config{
		CorpusPath: config.ResolveCorpusPath(practiceCorpus),
		TimeLimit:  practiceTimeLimit,
		LogPath:    practiceLog,
		Seed:       practiceSeed,
		Plain:      practicePlain,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	sentences, err := loadCorpus(cfg.CorpusPath)
	if err != nil {
		return err
	}

	gen := generator.New()
	if cfg.Seed != 0 {
		gen = generator.NewWithSeed(cfg.Seed)
	}

	var opts []typingtest.Option
	if cfg.LogPath != "" {
		logger, err := eventlog.New(cfg.LogPath)
		if err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
		opts = append(opts, typingtest.WithEventSink(logger))
	}
	ctrl := typingtest.New(sentences, gen, opts...)

	if cfg.Plain || !term.IsTerminal(int(os.Stdin.Fd())) {
		if err := lineui.RunTerminal(ctrl, os.Stdin, cmd.OutOrStdout(), lineui.Options{TimeLimit: cfg.TimeLimit}); err != nil {
			return fmt.Errorf("failed to run line interface: %w", err)
		}
		return nil
	}

	program := tea.NewProgram(tui.NewModel(ctrl, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "List the reference sentences in use",
		Args:  cobra.NoArgs,
		RunE:  runCorpusCmd,
	}
	cmd.Flags().StringVar(&listCorpus, "corpus", "", "sentence file (.txt, .toml, .yaml)")
	return cmd
}

func runCorpusCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "corpus", &listCorpus, fileCfg.Practice.Corpus)

	path := config.ResolveCorpusPath(listCorpus)
	sentences, err := loadCorpus(path)
	if err != nil {
		return err
	}
	source := path
	if source == "" {
		source = "built-in"
	}
	logErrf("Corpus: %s (%d sentences)\n", source, sentences.Len())
	for i, s := range sentences.Sentences() {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", i+1, s); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score typed text against a reference without running a test",
		Args:  cobra.NoArgs,
		RunE:  runScoreCmd,
	}
	cmd.Flags().StringVar(&scoreReference, "reference", "", "reference text")
	cmd.Flags().StringVar(&scoreTyped, "typed", "", "typed text")
	cmd.Flags().DurationVar(&scoreElapsed, "elapsed", 0, "time taken, e.g. 42s")
	return cmd
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	if scoreReference == "" {
		return fmt.Errorf("--reference must not be empty")
	}
	typed := strings.TrimSpace(scoreTyped)
	if typed == "" {
		return fmt.Errorf("--typed must not be empty")
	}
	if scoreElapsed < 0 {
		return fmt.Errorf("--elapsed must be >= 0")
	}
	result := stats.Compute(scoreReference, typed, scoreElapsed.Seconds())
	if err := stats.RenderResult(cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func loadCorpus(path string) (*corpus.Corpus, error) {
	if path == "" {
		return corpus.Default(), nil
	}
	c, err := corpus.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return c, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typespeed configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# corpus = %q    # Sentence file (.txt one per line, .toml/.yaml "sentences" list)
# time-limit = "60s"  # Submit automatically after this long
# log = %q       # Append session events as JSON lines
`,
		config.DefaultCorpusPath(),
		config.DefaultLogPath(),
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.TimeLimit < 0 {
		return fmt.Errorf("--time-limit must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
