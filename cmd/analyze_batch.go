package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jamwojt/csv-sumup/internal/analysis"
	"github.com/jamwojt/csv-sumup/internal/fsutil"
	"github.com/jamwojt/csv-sumup/internal/source"
)

var (
	abFlags     runFlags
	abOutputDir string
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Summarize several files, one independent run per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}

		c := *currentConfig()
		s, err := abFlags.resolve(cmd, &c)
		if err != nil {
			return err
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		exp, err := newExporter(ctx, s, out)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := exp.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		total := len(files)
		used := map[string]int{}
		var failed []string
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			opt := s.opt
			opt.Logger = logger.With(zap.String("file", path))
			opt.Recorder = exp.rec

			rep, err := analysis.AnalyzeFile(ctx, path, opt)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", path, err)
				failed = append(failed, filepath.Base(path))
				continue
			}
			body, err := rep.Render(s.format)
			if err != nil {
				return err
			}
			if abOutputDir != "" {
				dst := outputName(abOutputDir, path, s.format, used)
				if err := fsutil.WriteFileAtomic(dst, body); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				if !abQuiet {
					fmt.Fprintf(out, "✓ Wrote analysis to %s\n", dst)
				}
			} else if !abQuiet {
				if _, err := out.Write(body); err != nil {
					return err
				}
			}
			if err := exp.save(ctx, rep); err != nil {
				return err
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d files failed: %s", len(failed), total, strings.Join(failed, ", "))
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates and files
// no reader supports.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if !source.IsSupported(m) {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// outputName maps an input to <dir>/<stem>.summary.<ext>. Inputs sharing a stem
// get a __2, __3... suffix in the order they are written.
func outputName(dir, path, format string, used map[string]int) string {
	ext := ".txt"
	switch strings.ToLower(format) {
	case "markdown", "md":
		ext = ".md"
	case "json":
		ext = ".json"
	}
	base := filepath.Base(path)
	for {
		trimmed := strings.TrimSuffix(base, filepath.Ext(base))
		if trimmed == base || filepath.Ext(trimmed) == "" {
			base = trimmed
			break
		}
		base = trimmed
	}
	used[base]++
	if n := used[base]; n > 1 {
		base = fmt.Sprintf("%s__%d", base, n)
	}
	return filepath.Join(dir, base+".summary"+ext)
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd.Flags())
	analyzeBatchCmd.Flags().StringVar(&abOutputDir, "output-dir", "", "write one report per input into this directory")
	analyzeBatchCmd.Flags().BoolVarP(&abQuiet, "quiet", "q", false, "suppress progress output")
}
