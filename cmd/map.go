package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/agentic-research/reshape/internal/ingest"
	"github.com/agentic-research/reshape/mapper"
)

type mapOptions struct {
	rules  string
	out    string
	expect string
	pretty bool
	lines  bool
}

var mapOpts mapOptions

var mapCmd = &cobra.Command{
	Use:   "map [input]",
	Short: "Map source documents from a JSON, NDJSON or SQLite file",
	Long: `Map every source document in input with the rule set given by --rules.

input is a JSON document, a JSON array of documents, a line-delimited file
(.ndjson, .jsonl) or a SQLite database (.db) with a results(id, record) table.
Output goes to stdout as a JSON array unless --out names a file; an --out
ending in .db writes a SQLite database readable as input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := mapOpts
		opts.rules = rulesPath
		return runMap(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
	},
}

func init() {
	mapCmd.Flags().StringVarP(&mapOpts.out, "out", "o", "-", "Output file (.db for SQLite, - for stdout)")
	mapCmd.Flags().StringVar(&mapOpts.expect, "expect", "", "Compare the output with a golden JSON file and fail on differences")
	mapCmd.Flags().BoolVar(&mapOpts.pretty, "pretty", false, "Indent JSON output")
	mapCmd.Flags().BoolVar(&mapOpts.lines, "lines", false, "Write one JSON document per line")
	rootCmd.AddCommand(mapCmd)
}

func isDB(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func runMap(ctx context.Context, stdout io.Writer, input string, opts mapOptions) error {
	m, err := loadMapper(opts.rules)
	if err != nil {
		return err
	}

	start := time.Now()
	if isDB(opts.out) {
		if opts.expect != "" {
			return fmt.Errorf("--expect cannot be combined with a database output")
		}
		return mapToDB(ctx, m, input, opts.out, stdout, start)
	}

	var out []map[string]any
	err = eachSource(input, func(id string, doc any) error {
		res, err := m.MapOneContext(ctx, doc)
		if err != nil {
			return fmt.Errorf("record %s: %w", id, err)
		}
		out = append(out, res...)
		return nil
	})
	if err != nil {
		return err
	}
	if verbose {
		_, _ = fmt.Fprintf(os.Stderr, "Mapped %d documents in %v.\n", len(out), time.Since(start))
	}

	if opts.expect != "" {
		if err := compareGolden(stdout, opts.expect, out); err != nil {
			return err
		}
	}
	return writeOutput(stdout, opts, out)
}

// eachSource calls fn for every source document in input. Documents read
// from files are numbered from 0.
func eachSource(input string, fn func(id string, doc any) error) error {
	if isDB(input) {
		return ingest.StreamSQLite(input, fn)
	}
	fs, name, err := openFile(input)
	if err != nil {
		return err
	}
	docs, err := ingest.ReadDocuments(fs, name)
	if err != nil {
		return err
	}
	for i, d := range docs {
		if err := fn(strconv.Itoa(i), d); err != nil {
			return err
		}
	}
	return nil
}

func mapToDB(ctx context.Context, m *mapper.Mapper, input, output string, stdout io.Writer, start time.Time) error {
	_ = os.Remove(output) // Overwrite
	writer, err := ingest.NewSQLiteWriter(output)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Mapping %s into %s...\n", input, output)
	err = eachSource(input, func(id string, doc any) error {
		res, err := m.MapOneContext(ctx, doc)
		if err != nil {
			return fmt.Errorf("record %s: %w", id, err)
		}
		return writer.Write(id, res)
	})
	if err != nil {
		_ = writer.Close()
		return err
	}
	n := writer.Count()
	if err := writer.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d documents in %v.\n", n, time.Since(start))
	return nil
}

func writeOutput(stdout io.Writer, opts mapOptions, docs []map[string]any) error {
	w := stdout
	if opts.out != "" && opts.out != "-" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.out, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if opts.lines {
		return ingest.WriteLines(w, docs)
	}
	return ingest.WriteDocuments(w, docs, opts.pretty)
}

// compareGolden fails with a unified diff when docs differ from the JSON in
// the golden file. Both sides are compared in sorted, indented form.
func compareGolden(w io.Writer, golden string, docs []map[string]any) error {
	fs, name, err := openFile(golden)
	if err != nil {
		return err
	}
	data, err := util.ReadFile(fs, name)
	if err != nil {
		return fmt.Errorf("read golden %s: %w", golden, err)
	}
	want, err := oj.Parse(data)
	if err != nil {
		return fmt.Errorf("parse golden %s: %w", golden, err)
	}

	expected := oj.JSON(want, &ojg.Options{Sort: true, Indent: 2})
	actual := ingest.EncodeDocuments(docs, true)
	if expected == actual {
		return nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected + "\n"),
		B:        difflib.SplitLines(actual + "\n"),
		FromFile: golden,
		ToFile:   "output",
		Context:  3,
	})
	if err != nil {
		return err
	}
	printDiff(w, diff)
	return fmt.Errorf("output differs from %s", golden)
}

func printDiff(w io.Writer, diff string) {
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	for _, line := range difflib.SplitLines(diff) {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			fmt.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			_, _ = red.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			_, _ = green.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
}
