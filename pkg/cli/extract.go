package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bstardust/imgmeta/internal/logger"
	"github.com/bstardust/imgmeta/pkg/metadata"
)

// Report is what extract prints for each image
type Report struct {
	RawMetadata       *metadata.Record            `json:"raw_metadata"`
	FormattedMetadata *metadata.FormattedMetadata `json:"formatted_metadata"`
	Summary           string                      `json:"summary"`
}

func newExtractCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "extract [flags] <image>...",
		Short: "Print the metadata of one or more images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.OutOrStdout(), output, args)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format (json, text, summary)")

	return cmd
}

func runExtract(w io.Writer, output string, paths []string) error {
	switch output {
	case "json", "text", "summary":
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	reports := make([]Report, 0, len(paths))
	failed := 0
	for _, p := range paths {
		raw := metadata.Extract(p)
		if raw.Failed() {
			logger.Warn("Could not read %s: %s", p, raw.Error)
			failed++
		}
		reports = append(reports, Report{
			RawMetadata:       raw,
			FormattedMetadata: metadata.FormatForDisplay(raw),
			Summary:           metadata.Summarize(raw),
		})
	}

	var err error
	switch output {
	case "json":
		err = writeJSONReports(w, reports)
	case "text":
		err = writeTextReports(w, paths, reports)
	case "summary":
		err = writeSummaries(w, paths, reports)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be read", failed, len(paths))
	}
	return nil
}

func writeJSONReports(w io.Writer, reports []Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	return enc.Encode(reports)
}

func writeTextReports(w io.Writer, paths []string, reports []Report) error {
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s ==\n", paths[i])
		if r.RawMetadata.Failed() {
			fmt.Fprintf(w, "Error: %s\n", r.RawMetadata.Error)
			continue
		}
		for _, sec := range r.FormattedMetadata.Sections() {
			if sec.Fields.Len() == 0 {
				continue
			}
			fmt.Fprintf(w, "%s\n", sec.Title)
			var werr error
			sec.Fields.Each(func(label string, v any) {
				if werr == nil {
					_, werr = fmt.Fprintf(w, "  %s: %v\n", label, v)
				}
			})
			if werr != nil {
				return werr
			}
		}
		if _, err := fmt.Fprintf(w, "Summary: %s\n", r.Summary); err != nil {
			return err
		}
	}
	return nil
}

func writeSummaries(w io.Writer, paths []string, reports []Report) error {
	for i, r := range reports {
		var err error
		if len(reports) == 1 {
			_, err = fmt.Fprintln(w, r.Summary)
		} else {
			_, err = fmt.Fprintf(w, "%s: %s\n", paths[i], r.Summary)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
