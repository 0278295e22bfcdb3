package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"deckrip/internal/extract"
	"deckrip/internal/store"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var dbPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize an extracted output store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := dbPath
			if path == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = filepath.Join(cfg.Paths.OutputDir, extract.StoreName)
			}
			path, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve store path: %w", err)
			}

			st, err := store.Open(path)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, stats)
			}

			rows := [][]string{
				{"Store", path},
				{"Notes", strconv.Itoa(stats.Notes)},
				{"Cards", strconv.Itoa(stats.Cards)},
				{"One-by-one notes", strconv.Itoa(stats.OneByOne)},
				{"Notes with media", strconv.Itoa(stats.WithMedia)},
				{"Max cards per note", strconv.Itoa(stats.MaxCards)},
				{"Raw fields retained", strconv.FormatBool(stats.RawColumns)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Path to deck.sqlite (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit stats as JSON")

	return cmd
}
