package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/prism/internal/extract"
	"github.com/dgallion1/prism/internal/layout"
	"github.com/dgallion1/prism/internal/render"
	"github.com/dgallion1/prism/internal/report"
	"github.com/dgallion1/prism/internal/search"
)

var (
	searchType    string
	searchPreview int
	jsonOutput    bool
	strict        bool
	exportOut     string
	exportFormat  string
	exportDetail  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the report for a phrase",
	Long: `Finds every block whose section title or text contains the query,
ignoring case, and prints the hits grouped by chapter.

Example:
  prism search --data report.yaml --type table deepseek`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var classifyCmd = &cobra.Command{
	Use:   "classify [header...]",
	Short: "Show which layout a table header row gets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), layout.Classify(args))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [report]",
	Short: "Check a report for authoring defects",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

var statsCmd = &cobra.Command{
	Use:   "stats [report]",
	Short: "Print report and per-chapter counts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

var exportCmd = &cobra.Command{
	Use:   "export [report]",
	Short: "Write the report as a standalone HTML page or native JSON",
	Long: `Converts any supported input into HTML (readable, and loadable again by
prism) or the native JSON format.

Example:
  prism export notes.md --format json -o report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "all", "Block type filter: all, table, stats, trends, note")
	searchCmd.Flags().IntVar(&searchPreview, "preview", 0, "Hits shown per chapter (0 for all)")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	statsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	validateCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when there are warnings")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "html", "html or json")
	exportCmd.Flags().StringVar(&exportDetail, "detail", "deep", "core hides deep table rows in HTML layouts")
}

// runSearch logs load warnings to stderr so stdout carries only results.
func runSearch(cmd *cobra.Command, args []string) error {
	filter, err := search.ParseFilter(searchType)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, _, err := loadReport(cfg, newLogger(cmd.ErrOrStderr(), cfg), nil)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	groups := search.GroupByChapter(search.Search(doc, query, filter))
	total := search.Count(groups)
	if searchPreview > 0 {
		for i := range groups {
			groups[i] = groups[i].Preview(searchPreview)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, map[string]any{"query": query, "filter": filter, "total": total, "groups": groups})
	}
	if total == 0 {
		fmt.Fprintf(out, "no results for %q\n", query)
		return nil
	}
	fmt.Fprintf(out, "%d results for %q\n", total, query)
	for _, g := range groups {
		fmt.Fprintf(out, "\n%s (%s)\n", g.ChapterTitle, g.ChapterID)
		for _, r := range g.Items {
			fmt.Fprintf(out, "  %s › %s: %s\n", r.SectionTitle, r.Block.Kind(), extract.Text(r.Block))
		}
		if g.More > 0 {
			fmt.Fprintf(out, "  … %d more\n", g.More)
		}
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, warnings, err := loadReport(cfg, newLogger(io.Discard, cfg), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range warnings {
		fmt.Fprintln(out, w.String())
	}
	fmt.Fprintf(out, "%d chapters, %d warnings\n", len(doc.Chapters), len(warnings))
	if strict && len(warnings) > 0 {
		return fmt.Errorf("report has %d warnings", len(warnings))
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, _, err := loadReport(cfg, newLogger(cmd.ErrOrStderr(), cfg), args)
	if err != nil {
		return err
	}

	type chapterStats struct {
		ID    string                `json:"id"`
		Title string                `json:"title"`
		Stats report.ChapterSummary `json:"stats"`
	}
	chapters := make([]chapterStats, 0, len(doc.Chapters))
	for i := range doc.Chapters {
		ch := &doc.Chapters[i]
		chapters = append(chapters, chapterStats{ID: ch.ID, Title: ch.Title, Stats: report.ChapterStats(ch)})
	}
	totals := report.ReportTotals(doc)

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, map[string]any{"title": doc.Title, "totals": totals, "chapters": chapters})
	}
	fmt.Fprintf(out, "%s\n%d chapters, %d table rows, %d stat items, %d trends\n",
		doc.Title, len(chapters), totals.TableRows, totals.StatItems, totals.Trends)
	for i, ch := range chapters {
		fmt.Fprintf(out, "%2d. %s [%s]: %d sections, %d rows, %d items\n",
			i+1, ch.Title, ch.ID, ch.Stats.Sections, ch.Stats.DataRows, ch.Stats.StatItems)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, _, err := loadReport(cfg, newLogger(cmd.ErrOrStderr(), cfg), args)
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(exportFormat) {
	case "html":
		page, err := render.Document(doc, render.Options{
			PlainTables: true,
			Detail:      layout.ViewLevel(exportDetail),
		})
		if err != nil {
			return err
		}
		data = []byte(page)
	case "json":
		data, err = json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown export format %q: want html or json", exportFormat)
	}

	if exportOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", exportOut, len(data))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
