package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/reshape/internal/grammar"
	"github.com/agentic-research/reshape/internal/rules"
	"github.com/agentic-research/reshape/mapper"
)

var (
	rulesPath string
	verbose   bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rulesPath, "rules", "r", "", "Path to the rule file (.yaml, .yml, .json or .hcl)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print progress")
}

var rootCmd = &cobra.Command{
	Use:           "reshape",
	Short:         "Reshape JSON documents with declarative JSONPath rules",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// openFile splits path into a filesystem rooted at its directory and the
// file name inside it.
func openFile(path string) (billy.Filesystem, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return osfs.New(filepath.Dir(abs)), filepath.Base(abs), nil
}

// loadMapper reads the rule file at path and builds a validated Mapper.
func loadMapper(path string) (*mapper.Mapper, error) {
	if path == "" {
		return nil, fmt.Errorf("--rules is required")
	}
	fs, name, err := openFile(path)
	if err != nil {
		return nil, err
	}
	rs, err := rules.LoadRuleSet(fs, name)
	if err != nil {
		return nil, err
	}
	return mapper.New(rs, mapper.WithValidator(grammar.Validate))
}
