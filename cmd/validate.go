package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a rule file without mapping anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout(), rulesPath)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(w io.Writer, path string) error {
	m, err := loadMapper(path)
	if err != nil {
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(w, "✗ %s\n", path)
		return err
	}

	_, _ = color.New(color.FgGreen, color.Bold).Fprintf(w, "✓ %s: %d rules\n", path, len(m.Rules()))
	if verbose {
		for _, c := range m.Rules() {
			fmt.Fprintf(w, "  %-24s %-16s %v\n", c.Target.Raw, c.Kind, c.Paths)
		}
	}
	return nil
}
