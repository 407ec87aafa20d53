package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/readease/internal/graph"
	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/processing"
	"github.com/Divas-Gupta30/readease/internal/progress"
)

type runFlags struct {
	lang         string
	level        int
	maxSentences int
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.lang, "lang", "", "OCR language: eng, hin, tam (default from config)")
	cmd.Flags().IntVar(&f.level, "level", 0, "simplification level 1-5 (default from config)")
	cmd.Flags().IntVar(&f.maxSentences, "max-sentences", 0, "sentences kept by the local summarizer (default from config)")
}

func (f *runFlags) options(obs progress.Observer) graph.Options {
	return graph.Options{Lang: f.lang, Level: f.level, MaxSentences: f.maxSentences, Observer: obs}
}

// statusPrinter writes progress to w, one line per event.
func statusPrinter(w io.Writer) progress.Observer {
	return progress.Func(func(e progress.Event) {
		fmt.Fprintln(w, e.Message)
	})
}

func newProcessCmd(g *globals) *cobra.Command {
	var (
		flags  runFlags
		asJSON bool
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "process PATH",
		Short: "Process a file, or every supported file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := ingestion.LoadLocalFiles(args[0])
			if err != nil {
				return fmt.Errorf("load files: %w", err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no supported files under %s", args[0])
			}

			a, err := newApp(cmd.Context(), g.cfg, g.log)
			if err != nil {
				return err
			}
			defer a.Close()

			var obs progress.Observer
			if !quiet {
				obs = statusPrinter(cmd.ErrOrStderr())
			}
			out := cmd.OutOrStdout()
			failed := 0
			for _, f := range files {
				doc, err := ingestion.OpenLocal(f)
				if err != nil {
					g.log.Warn("skip file", zap.String("file", f), zap.Error(err))
					failed++
					continue
				}
				res, err := a.pipeline.Run(cmd.Context(), doc, flags.options(obs))
				if err != nil {
					if ctxErr := cmd.Context().Err(); ctxErr != nil {
						return ctxErr
					}
					g.log.Warn("skip file", zap.String("file", f), zap.Error(err))
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f, graph.UserMessage(err))
					failed++
					continue
				}
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(res); err != nil {
						return err
					}
					continue
				}
				if len(files) > 1 {
					fmt.Fprintf(out, "== %s\n", f)
				}
				fmt.Fprintln(out, res.Display)
			}
			if failed == len(files) {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	return cmd
}

func newSimplifyCmd(g *globals) *cobra.Command {
	var (
		level        int
		summarize    bool
		lang         string
		maxSentences int
	)
	cmd := &cobra.Command{
		Use:   "simplify [TEXT]",
		Short: "Simplify text from the arguments or stdin, locally",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 || text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}
			if level == 0 {
				level = g.cfg.Pipeline.DefaultLevel
			}
			if maxSentences == 0 {
				maxSentences = g.cfg.Pipeline.MaxSentences
			}
			if summarize {
				text = processing.Summarize(text, lang, maxSentences)
			}
			fmt.Fprintln(cmd.OutOrStdout(), processing.Simplify(text, level))
			return nil
		},
	}
	cmd.Flags().IntVar(&level, "level", 0, "simplification level 1-5 (default from config)")
	cmd.Flags().BoolVar(&summarize, "summarize", false, "run the extractive summarizer first")
	cmd.Flags().StringVar(&lang, "lang", "eng", "stop-word language for --summarize")
	cmd.Flags().IntVar(&maxSentences, "max-sentences", 0, "sentences kept by --summarize (default from config)")
	return cmd
}

