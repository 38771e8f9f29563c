package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/prism/internal/session"
	"github.com/dgallion1/prism/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [report]",
	Short: "Read the report in the terminal",
	Long: `Opens an interactive browser with a dashboard, one page per chapter and a
search view.

Keys:
  ctrl+k or /   search (tab cycles the type filter, esc clears)
  [ and ]       previous / next chapter, 1-9 jumps to a chapter
  d             toggle core / all rows
  e             expand or preview tables
  q             quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Load warnings go to stderr before the alternate screen takes over.
		log := newLogger(os.Stderr, cfg)

		doc, _, err := loadReport(cfg, log, args)
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), doc,
			session.Options{Delay: cfg.Debounce},
			tui.Options{PreviewRows: cfg.PreviewRows, GroupPreview: cfg.GroupPreview},
			log,
		)
	},
}
