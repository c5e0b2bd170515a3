package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"avancofisico/internal/exporter"
	"avancofisico/internal/validation"
	"avancofisico/pkg/contracts"
	"avancofisico/pkg/contracts/domain"
)

func summaryCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the KPI cards and insights of the filtered view",
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := opts.spec()
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}

			dashboard, err := svc.Render(cmd.Context(), spec)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(dashboard)
			}
			return printSummary(cmd.OutOrStdout(), dashboard)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the whole dashboard as JSON")
	return cmd
}

func printSummary(w io.Writer, d domain.Dashboard) error {
	var b strings.Builder

	fmt.Fprintln(&b, d.Status.Message)
	fmt.Fprintf(&b, "Linhas no filtro: %d\n\n", d.KPIs.Rows)
	for _, card := range d.KPIs.Cards {
		fmt.Fprintf(&b, "%-28s %16s  %s\n", card.Title, card.Display, card.Subtitle)
	}

	fmt.Fprintln(&b)
	for _, line := range d.Insights.Lines {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func exportCmd(opts *options) *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered table as CSV or XLSX",
		Long: `Export every row of the filtered view, formatted like the dashboard table.
The format follows --format, or the extension of --output when --format is empty.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := opts.spec()
			if err != nil {
				return err
			}

			if format == "" && output != "" {
				format = filepath.Ext(output)
			}
			if format == "" {
				format = string(exporter.FormatCSV)
			}
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			if output == "" {
				output = exporter.FileName(f, time.Now())
			}

			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := validation.NewFileValidator(opts.logger).ValidateOutputDirectory(dir); err != nil {
					return err
				}
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			if err := svc.Export(cmd.Context(), spec, string(f), file); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close output: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default avanco_fisico_<timestamp>.<format>)")
	cmd.Flags().StringVar(&format, "format", "", "csv or xlsx")
	return cmd
}

func snapshotCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the prepared dataset as a snapshot file",
		Long: `Write every prepared row, derived fields included, in the split JSON layout.
The snapshot can be read back with --snapshot. Filters do not apply.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}

			blob, err := svc.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(blob)
				return err
			}
			if err := os.WriteFile(output, blob, 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "snapshot file (default stdout)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
			return err
		},
	}
}
