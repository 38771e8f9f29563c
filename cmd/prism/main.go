package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/prism/internal/config"
	"github.com/dgallion1/prism/internal/ingest"
	"github.com/dgallion1/prism/internal/report"
)

var (
	// Global flags
	configPath string
	dataPath   string
	logLevel   string
	logFormat  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Browse, search and serve a structured industry report",
	Long: `prism loads a report made of chapters, sections and typed content blocks
(tables, headline stats, trends, cards, notes and diagrams) and lets you read
it in the terminal, query it from the command line, or serve it over HTTP.

Reports can be JSON, YAML, Markdown, HTML, CSV, plain text, DOCX or PDF.

Example:
  prism browse report.yaml
  prism search --type table DeepSeek
  prism serve --data report.json`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "Report file (or set PRISM_DATA)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (or set LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "json or text (or set LOG_FORMAT)")

	rootCmd.AddCommand(serveCmd, browseCmd, searchCmd, classifyCmd, validateCmd, statsCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers command-line flags over config.Load.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	if logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
	}
	if logFormat != "" {
		cfg.LogFormat = strings.ToLower(logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// loadReport loads the report named by the first argument, falling back to
// the configured data path.
func loadReport(cfg config.Config, log *slog.Logger, args []string) (*report.Document, []ingest.Warning, error) {
	path := cfg.DataPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, nil, fmt.Errorf("no report given: pass a path, --data or set PRISM_DATA")
	}
	return ingest.Load(path, cfg.LoadOptions(), log)
}
