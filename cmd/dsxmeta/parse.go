package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kiranshivaraju/dsxmeta/internal/batch"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type runFlags struct {
	parallel    bool
	concurrency int
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "Process documents with a bounded worker pool; output order is unspecified")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Worker count for --parallel (default DSX_CONCURRENCY)")
}

// parseOutput is one document's entry in parse output.
type parseOutput struct {
	Document   string              `json:"document"`
	Status     string              `json:"status"`
	Cached     bool                `json:"cached"`
	Error      string              `json:"error,omitempty"`
	Model      *models.JobMetadata `json:"data,omitempty"`
	Validation *models.Validation  `json:"validation,omitempty"`
}

func newParseCmd(a *app) *cobra.Command {
	var (
		flags  runFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "parse <file.dsx|bundle.zip>...",
		Short: "Extract job metadata and print it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("--format must be json or yaml, got %q", format)
			}
			res, err := a.run(cmd.Context(), args, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := make([]parseOutput, 0, len(res.Results))
			for _, r := range res.Results {
				entry := parseOutput{Document: r.DocumentName, Status: r.State, Cached: r.Cached}
				if r.Err != nil {
					entry.Error = r.Err.Error()
				} else {
					entry.Model = r.Parsed.Model
					v := r.Parsed.Validation
					entry.Validation = &v
				}
				out = append(out, entry)
			}

			if err := writeFormatted(cmd.OutOrStdout(), format, out); err != nil {
				return err
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d documents failed", res.Failed, len(res.Results))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		flags  runFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <file.dsx|bundle.zip>...",
		Short: "Extract job metadata into a zip of per-document JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.run(cmd.Context(), args, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := batch.Export(f, res.Parsed()); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", output, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d documents to %s\n",
				res.Succeeded, len(res.Results), output)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "dsx-export.zip", "Bundle path")
	return cmd
}

// run parses the named files, printing failures to errOut as they occur.
func (a *app) run(ctx context.Context, paths []string, flags runFlags, errOut io.Writer) (*batch.BatchResult, error) {
	docs := make([]batch.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := batch.FileDocument(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	var (
		res *batch.BatchResult
		err error
	)
	if flags.parallel {
		concurrency := flags.concurrency
		if concurrency < 1 {
			concurrency = a.cfg.Parser.Concurrency
		}
		res, err = a.orchestrator.RunParallel(ctx, docs, concurrency)
	} else {
		res, err = a.orchestrator.RunSequential(ctx, docs, func(p batch.Progress) {
			if a.verbose {
				fmt.Fprintf(errOut, "[%d/%d] %s\n", p.Processed, p.Total, p.CurrentDocument)
			}
		})
	}
	if err != nil {
		return nil, err
	}

	for _, r := range res.Results {
		if r.Err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", r.DocumentName, r.Err)
		}
	}
	return res, nil
}

// writeFormatted writes v as indented JSON or as YAML with the JSON field
// names and order.
func writeFormatted(w io.Writer, format string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if format == "json" {
		_, err := w.Write(append(raw, '\n'))
		return err
	}

	// JSON is valid YAML, so decoding into a node keeps key order.
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("convert output: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
