// Package report renders analysis records for people: a console listing,
// Markdown, and a standalone HTML page.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"fmeagraph/domain/analysis"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"
)

// Summary is the headline numbers of a record
type Summary struct {
	Processes       int
	FailureModes    int
	Causes          int
	MeanProbability float64
	FailedDatasets  int
	Diagnostics     int
}

// Summarize counts the contents of rec
func Summarize(rec *analysis.Record) Summary {
	s := Summary{Processes: len(rec.Processes), FailedDatasets: len(rec.Failures)}
	for _, p := range rec.Processes {
		s.FailureModes += len(p.FailureModes)
		s.Diagnostics += len(p.Diagnostics)
	}

	probabilities := stats.Float64Data(rec.CauseProbabilities())
	s.Causes = probabilities.Len()
	if s.Causes > 0 {
		// Mean only fails on empty input
		s.MeanProbability, _ = probabilities.Mean()
	}
	return s
}

// WriteText writes the console report
func WriteText(w io.Writer, rec *analysis.Record) error {
	var b bytes.Buffer
	s := Summarize(rec)

	fmt.Fprintf(&b, "Analysis %s (%s)\n", rec.ID, rec.Source)
	fmt.Fprintf(&b, "%d processes, %d errors, %d causes, mean cause probability %.3f\n",
		s.Processes, s.FailureModes, s.Causes, s.MeanProbability)

	for _, p := range rec.Processes {
		fmt.Fprintf(&b, "\nProcess %d: %s (%d nodes, %d edges)\n", p.Index, p.Name, p.NodeCount, p.EdgeCount)
		for _, fm := range p.FailureModes {
			fmt.Fprintf(&b, "  Error: %s  RPN %g\n", fm.Name, fm.RiskPriority)
			for _, c := range fm.Causes {
				fmt.Fprintf(&b, "    %d. %-40s %.3f\n", c.Rank, c.Name, c.Probability)
			}
			if fm.Residual > 0 {
				fmt.Fprintf(&b, "       %-40s %.3f\n", "(unlisted causes)", fm.Residual)
			}
		}
		for _, d := range p.Diagnostics {
			fmt.Fprintf(&b, "  ! %s\n", describe(d))
		}
	}

	for _, f := range rec.Failures {
		fmt.Fprintf(&b, "\nDataset %q skipped [%s]: %s\n", f.Dataset, f.Code, f.Message)
	}

	_, err := w.Write(b.Bytes())
	return err
}

// Markdown renders rec as a Markdown document
func Markdown(rec *analysis.Record) []byte {
	var b bytes.Buffer
	s := Summarize(rec)

	fmt.Fprintf(&b, "# FMEA analysis: %s\n\n", escape(rec.Source))
	fmt.Fprintf(&b, "- Analysis: `%s`\n", rec.ID)
	if !rec.Fingerprint.IsEmpty() {
		fmt.Fprintf(&b, "- Fingerprint: `%s`\n", rec.Fingerprint.Short())
	}
	fmt.Fprintf(&b, "- Processes: %d, errors: %d, causes: %d\n", s.Processes, s.FailureModes, s.Causes)
	fmt.Fprintf(&b, "- Mean cause probability: %.3f\n\n", s.MeanProbability)

	for _, p := range rec.Processes {
		fmt.Fprintf(&b, "## Process %d: %s\n\n", p.Index, escape(p.Name))
		for _, fm := range p.FailureModes {
			fmt.Fprintf(&b, "### %s\n\n", escape(fm.Name))
			fmt.Fprintf(&b, "RPN %g", fm.RiskPriority)
			if len(fm.Effects) > 0 {
				fmt.Fprintf(&b, ". Effects: %s", escape(strings.Join(fm.Effects, ", ")))
			}
			b.WriteString("\n\n")

			if len(fm.Causes) > 0 {
				b.WriteString("| Rank | Cause | Occurrence | Probability |\n")
				b.WriteString("|-----:|-------|-----------:|------------:|\n")
				for _, c := range fm.Causes {
					fmt.Fprintf(&b, "| %d | %s | %g | %.3f |\n", c.Rank, escape(c.Name), c.RawWeight, c.Probability)
				}
				if fm.Residual > 0 {
					fmt.Fprintf(&b, "| | *unlisted causes* | | %.3f |\n", fm.Residual)
				}
				b.WriteString("\n")
			}

			for _, a := range fm.Actions {
				fmt.Fprintf(&b, "- Action: %s\n", escape(a))
			}
			if len(fm.Actions) > 0 {
				b.WriteString("\n")
			}
		}

		if len(p.Diagnostics) > 0 {
			b.WriteString("**Diagnostics**\n\n")
			for _, d := range p.Diagnostics {
				fmt.Fprintf(&b, "- %s\n", escape(describe(d)))
			}
			b.WriteString("\n")
		}
	}

	if len(rec.Failures) > 0 {
		b.WriteString("## Skipped datasets\n\n")
		for _, f := range rec.Failures {
			fmt.Fprintf(&b, "- %s (`%s`): %s\n", escape(f.Dataset), f.Code, escape(f.Message))
		}
	}
	return b.Bytes()
}

// HTML renders rec as a complete HTML page
func HTML(rec *analysis.Record) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "FMEA analysis " + rec.Source,
	})
	return markdown.ToHTML(Markdown(rec), p, renderer)
}

func describe(d analysis.Diagnostic) string {
	if d.Node == "" {
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Node, d.Code, d.Message)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "<", "&lt;", ">", "&gt;",
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
