package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"deckrip/internal/extract"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir      string
		modelID     int64
		keepRaw     bool
		overwrite   bool
		strict      bool
		strictMedia bool
		noProgress  bool
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "extract <archive.apkg>",
		Short: "Convert an .apkg archive into the output store and media directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(archivePath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("archive does not exist: %s", archivePath)
				}
				return fmt.Errorf("inspect archive: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", archivePath)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			opts := extract.Options{
				ArchivePath: archivePath,
				OutputDir:   cfg.Paths.OutputDir,
				ModelID:     cfg.Extract.ModelID,
				KeepRaw:     cfg.Extract.KeepRaw,
				Overwrite:   cfg.Extract.Overwrite,
				Strict:      cfg.Extract.Strict,
				StrictMedia: cfg.Extract.StrictMedia,
			}
			flags := cmd.Flags()
			if flags.Changed("out") {
				if opts.OutputDir, err = filepath.Abs(outDir); err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
			}
			if flags.Changed("model-id") {
				opts.ModelID = modelID
			}
			if flags.Changed("keep-raw") {
				opts.KeepRaw = keepRaw
			}
			if flags.Changed("overwrite") {
				opts.Overwrite = overwrite
			}
			if flags.Changed("strict") {
				opts.Strict = strict
			}
			if flags.Changed("strict-media") {
				opts.StrictMedia = strictMedia
			}
			opts.Progress = !noProgress && !jsonOut && isatty.IsTerminal(os.Stderr.Fd())

			report, err := extract.Run(cmd.Context(), logger, opts)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderExtractReport(report))
			if report.NotesSkipped > 0 || report.MediaMissing > 0 {
				fmt.Fprintf(cmd.OutOrStdout(),
					"warning: %d notes skipped, %d referenced media missing (see log)\n",
					report.NotesSkipped, report.MediaMissing)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default from config)")
	cmd.Flags().Int64Var(&modelID, "model-id", 0, "Restrict to one note model id (0 = all)")
	cmd.Flags().BoolVar(&keepRaw, "keep-raw", false, "Store raw uncleaned fields alongside cleaned ones")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace a previous run's output")
	cmd.Flags().BoolVar(&strict, "strict", false, "Abort on the first malformed note record")
	cmd.Flags().BoolVar(&strictMedia, "strict-media", false, "Abort when referenced media is missing from the manifest")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bars")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run report as JSON")

	return cmd
}

func renderExtractReport(report *extract.Report) string {
	rows := [][]string{
		{"Collection", report.Collection},
		{"Notes read", strconv.Itoa(report.NotesRead)},
		{"Notes written", strconv.Itoa(report.NotesWritten)},
		{"Notes skipped", strconv.Itoa(report.NotesSkipped)},
		{"Manifest entries", strconv.Itoa(report.ManifestEntries)},
		{"Media referenced", strconv.Itoa(report.MediaReferenced)},
		{"Media extracted", strconv.Itoa(report.MediaExtracted)},
		{"Media missing", strconv.Itoa(report.MediaMissing)},
		{"Store", report.StorePath},
		{"Media dir", report.MediaDir},
		{"Elapsed", report.Elapsed.Round(time.Millisecond).String()},
	}
	return renderTable([]string{"Field", "Value"}, rows)
}
