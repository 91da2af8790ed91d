package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"fmeagraph/adapters/excel"
	"fmeagraph/app"
	"fmeagraph/internal/api"
	"fmeagraph/internal/container"
	"fmeagraph/internal/report"

	"github.com/spf13/cobra"
)

// analyzeOptions are the flags of the analyze command
type analyzeOptions struct {
	dotDir string
	format string
	save   bool
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Rank causes and build failure networks for every sheet",
		Long: `Read an FMEA workbook (.xlsx, one process per sheet) or a CSV export,
estimate cause probabilities, synthesize CPTs and print the ranked causes.

Example: fmeagraph analyze fmea.xlsx --dot-dir out --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			return runAnalyze(cmd.Context(), c, args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.dotDir, "dot-dir", "", "Write one Graphviz file per process into this directory")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Report format: text, markdown or html")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Store the analysis in the configured database")

	return cmd
}

func newGraphCmd() *cobra.Command {
	var process int

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Print the failure network of one process as Graphviz DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			return runGraph(cmd.Context(), c, args[0], process, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&process, "process", 0, "Process index (0-based sheet order)")

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			server := api.NewServer(c.AnalysisService, c.SheetLayout(), c.Logger)
			return server.ListenAndServe(cmd.Context(), net.JoinHostPort("", c.Config.Server.Port))
		},
	}
}

func analyzeFile(ctx context.Context, c *container.Container, path string, save bool) (*app.Analysis, error) {
	wb, err := excel.NewDataReader(path, c.SheetLayout(), c.Logger).ReadData()
	if err != nil {
		return nil, err
	}
	return c.AnalysisService.Analyze(ctx, app.AnalyzeRequest{
		Source:      wb.Source,
		Fingerprint: wb.Fingerprint,
		Datasets:    wb.Datasets,
		Save:        save,
	})
}

// reportFormats are the values accepted by --format
var reportFormats = map[string]bool{"text": true, "markdown": true, "md": true, "html": true}

func runAnalyze(ctx context.Context, c *container.Container, path string, opts analyzeOptions, out io.Writer) error {
	if !reportFormats[opts.format] {
		return fmt.Errorf("unknown format %q (want text, markdown or html)", opts.format)
	}

	result, err := analyzeFile(ctx, c, path, opts.save)
	if err != nil {
		return err
	}

	if opts.dotDir != "" {
		if err := writeDOTFiles(result, opts.dotDir); err != nil {
			return err
		}
	}

	rec, err := result.Record()
	if err != nil {
		return err
	}

	switch opts.format {
	case "text":
		return report.WriteText(out, rec)
	case "markdown", "md":
		_, err = out.Write(report.Markdown(rec))
	case "html":
		_, err = out.Write(report.HTML(rec))
	}
	return err
}

// writeDOTFiles renders every process network into dir
func writeDOTFiles(result *app.Analysis, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, pr := range result.Processes {
		data, err := pr.Network.MarshalDOT()
		if err != nil {
			return fmt.Errorf("render process %d: %w", pr.Process.Index, err)
		}
		path := filepath.Join(dir, pr.Network.FileName("dot"))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

func runGraph(ctx context.Context, c *container.Container, path string, process int, out io.Writer) error {
	result, err := analyzeFile(ctx, c, path, false)
	if err != nil {
		return err
	}
	pr, err := result.Process(process)
	if err != nil {
		return err
	}
	data, err := pr.Network.MarshalDOT()
	if err != nil {
		return err
	}
	_, err = out.Write(append(data, '\n'))
	return err
}
