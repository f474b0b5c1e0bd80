package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Malay-RB/Document-parsing/internal/pipeline"
	"github.com/Malay-RB/Document-parsing/internal/svcctx"
)

var (
	outDir   string
	tocPages []int
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Run the full pipeline on a PDF",
	Long: `Run scout, sync and deep extraction on a PDF.

Bare file names are looked up in the configured input directory. Artifacts
are written under the output root:
  toc_json/<name>_toc.json              table of contents
  sync_reports/<name>_sync_report.json  TOC pages and content start
  json/<name>_result.json               extracted blocks
  metrics/<name>_metrics.json           stage timings and provider calls
  debug/<name>_*_debug.pdf              layout overlays (pipeline.debug)

Examples:
  scholar extract ncert10M.pdf
  scholar extract ./books/physics.pdf --out ./runs
  scholar extract ncert10M.pdf --sandbox -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup, err := setupServices(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		o, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		pdfPath, out := resolvePaths(ctx, args[0], outDir)

		res, err := o.Run(ctx, pdfPath, out)
		if res != nil {
			if perr := printResult(cmd, res); perr != nil {
				return perr
			}
		}
		if err != nil {
			return explain(err)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <pdf>",
	Short: "Locate the table of contents and the first content page",
	Long: `Run only the scout and sync phases and write the sync report.

Examples:
  scholar sync ncert10M.pdf
  scholar sync ncert10M.pdf -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup, err := setupServices(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		o, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		pdfPath, out := resolvePaths(ctx, args[0], outDir)

		report, err := o.Sync(ctx, pdfPath, out)
		if err != nil {
			return explain(err)
		}
		return printResult(cmd, report)
	},
}

var tocCmd = &cobra.Command{
	Use:   "toc <pdf>",
	Short: "Extract the table of contents from given pages",
	Long: `Extract table-of-contents entries from the listed physical pages and
write the TOC JSON. Use the toc_pages of a sync report.

Examples:
  scholar toc ncert10M.pdf --pages 3,4,5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup, err := setupServices(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		o, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		pdfPath, out := resolvePaths(ctx, args[0], outDir)

		entries, err := o.TOC(ctx, pdfPath, out, tocPages)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			svcctx.LoggerFrom(ctx).Warn("no TOC entries found", "pages", tocPages)
		}
		return printResult(cmd, entries)
	},
}

// explain adds a hint to the fatal synchronization errors.
func explain(err error) error {
	switch {
	case errors.Is(err, pipeline.ErrTriggerNotFound):
		return fmt.Errorf("%w (raise pipeline.scout_limit or add pipeline.keywords)", err)
	case errors.Is(err, pipeline.ErrAnchorNotFound):
		return fmt.Errorf("%w (raise pipeline.sync_limit or check the first TOC entry)", err)
	default:
		return err
	}
}

func init() {
	for _, c := range []*cobra.Command{extractCmd, syncCmd, tocCmd} {
		c.Flags().StringVar(&outDir, "out", "", "output root (default: paths.output or sandbox.output)")
		rootCmd.AddCommand(c)
	}
	tocCmd.Flags().IntSliceVar(&tocPages, "pages", nil, "physical TOC pages, comma separated")
	tocCmd.MarkFlagRequired("pages")
}
