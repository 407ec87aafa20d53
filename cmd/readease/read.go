package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Divas-Gupta30/readease/internal/graph"
	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/speech"
)

var (
	highlightStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	contextStyle   = lipgloss.NewStyle().Faint(true)
)

// highlighter renders a window of words around the spoken one.
type highlighter struct {
	words  []string
	window int
}

func (h highlighter) render(k int) string {
	if k < 0 || k >= len(h.words) {
		return ""
	}
	from, to := max(0, k-h.window), min(len(h.words), k+h.window+1)
	parts := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		if i == k {
			parts = append(parts, highlightStyle.Render(h.words[i]))
			continue
		}
		parts = append(parts, contextStyle.Render(h.words[i]))
	}
	return strings.Join(parts, " ")
}

func newReadCmd(g *globals) *cobra.Command {
	var (
		flags runFlags
		wpm   int
	)
	cmd := &cobra.Command{
		Use:   "read FILE",
		Short: "Process a file and read the result aloud with word highlighting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if wpm <= 0 {
				return fmt.Errorf("--wpm must be positive")
			}
			doc, err := ingestion.OpenLocal(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), g.cfg, g.log)
			if err != nil {
				return err
			}
			defer a.Close()

			reader := speech.NewReader(speech.NewPacedEngine(time.Minute/time.Duration(wpm)), g.log.Named("speech"))
			sess := graph.NewSession(a.pipeline, reader)
			res, err := sess.Process(cmd.Context(), doc, flags.options(statusPrinter(cmd.ErrOrStderr())))
			if err != nil {
				if msg := graph.UserMessage(err); msg != "" {
					return fmt.Errorf("%s %w", msg, err)
				}
				return err
			}
			return readAloud(cmd, sess, res, cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&wpm, "wpm", 160, "reading speed in words per minute at level 3")
	return cmd
}

func readAloud(cmd *cobra.Command, sess *graph.Session, res *graph.Result, out io.Writer) error {
	h := highlighter{words: strings.Fields(res.Display), window: 6}
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := sess.Reader().Subscribe(func(k int) {
		if k == speech.NoWord {
			once.Do(func() { close(done) })
			return
		}
		fmt.Fprintf(out, "\r\033[K%s", h.render(k))
	})
	defer unsubscribe()

	if err := sess.ReadAloud(); err != nil {
		if msg := graph.UserMessage(err); msg != "" {
			return fmt.Errorf("%s %w", msg, err)
		}
		return err
	}

	select {
	case <-done:
	case <-cmd.Context().Done():
		sess.Stop()
	}
	fmt.Fprintln(out)
	return nil
}
