package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"deckrip/internal/apkg"
)

const inspectSampleSize = 10

type inspectSummary struct {
	Archive         string `json:"archive"`
	Entries         int    `json:"entries"`
	Collection      string `json:"collection"`
	ManifestEntries int    `json:"manifest_entries"`
}

// newInspectCommand takes no command context: inspection reads only the
// archive and works without a configuration file.
func newInspectCommand() *cobra.Command {
	var jsonOut bool
	var showManifest bool

	cmd := &cobra.Command{
		Use:   "inspect <archive.apkg>",
		Short: "Peek inside an .apkg without extracting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			archive, err := apkg.Open(archivePath)
			if err != nil {
				return err
			}
			defer archive.Close()

			collection, err := archive.CollectionName()
			if err != nil {
				return err
			}
			manifest, err := archive.Manifest()
			if err != nil {
				return err
			}

			summary := inspectSummary{
				Archive:         archivePath,
				Entries:         archive.EntryCount(),
				Collection:      collection,
				ManifestEntries: len(manifest),
			}

			if jsonOut {
				return writeJSON(cmd, summary)
			}

			rows := [][]string{
				{"Archive", summary.Archive},
				{"Zip entries", strconv.Itoa(summary.Entries)},
				{"Collection", summary.Collection},
				{"Manifest entries", strconv.Itoa(summary.ManifestEntries)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))

			if showManifest && len(manifest) > 0 {
				keys := make([]int, 0, len(manifest))
				for key := range manifest {
					keys = append(keys, key)
				}
				sort.Ints(keys)
				if len(keys) > inspectSampleSize {
					keys = keys[:inspectSampleSize]
				}
				sample := make([][]string, 0, len(keys))
				for _, key := range keys {
					sample = append(sample, []string{strconv.Itoa(key), manifest[key]})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Filename"}, sample, 0))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the summary as JSON")
	cmd.Flags().BoolVar(&showManifest, "manifest", false, "Show the first manifest entries")

	return cmd
}
