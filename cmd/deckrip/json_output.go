package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON renders v as two-space-indented JSON on the command's stdout.
// Every --json flag in the command tree goes through here so the output
// shape stays uniform.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
