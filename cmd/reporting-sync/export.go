package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"reporting-sync/internal/config"
	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/shell/decoder"
)

// newExportCmd groups the manual export operations used to inspect the
// reporting API without touching cursors or the sink.
func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Manually operate on reporting export jobs",
	}

	cmd.AddCommand(newExportEnqueueCmd())
	cmd.AddCommand(newExportStatusCmd())
	cmd.AddCommand(newExportDownloadCmd())

	return cmd
}

func newExportEnqueueCmd() *cobra.Command {
	var (
		start int64
		end   int64
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Submit an export job for a time range and print its ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if end == 0 {
				end = time.Now().Unix()
			}
			if start == 0 {
				start = end - cfg.Dataset.WindowSeconds
			}

			client := newReportingClient(cfg.Reporting)
			job, err := client.EnqueueExport(cmd.Context(), domain.ExportRequest{
				DatasetID:    cfg.Dataset.ID,
				AttributeIDs: cfg.Dataset.AttributeIDs,
				StartTime:    start,
				EndTime:      end,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Enqueued export job %s for dataset %s [%d, %d)\n",
				job.ID, cfg.Dataset.ID, start, end)
			return nil
		},
	}

	cmd.Flags().Int64Var(&start, "start", 0, "Window start as unix epoch seconds (default: end minus window)")
	cmd.Flags().Int64Var(&end, "end", 0, "Window end as unix epoch seconds (default: now)")

	return cmd
}

func newExportStatusCmd() *cobra.Command {
	var jobID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the status of an export job",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			client := newReportingClient(cfg.Reporting)
			job, err := client.GetJob(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if job == nil {
				fmt.Printf("Job %s not visible yet (still registering)\n", jobID)
				return nil
			}

			fmt.Printf("Job %s: status=%s\n", job.ID, job.Status)
			if job.DownloadURL != "" {
				fmt.Printf("  Download URL: %s\n", job.DownloadURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "id", "", "Export job identifier")
	cmd.MarkFlagRequired("id")

	return cmd
}

func newExportDownloadCmd() *cobra.Command {
	var (
		jobID  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a completed export and print its rows as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			client := newReportingClient(cfg.Reporting)
			job, err := client.GetJob(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if job == nil || job.Status != domain.StatusComplete {
				return fmt.Errorf("job %s is not complete", jobID)
			}

			body, err := client.Download(cmd.Context(), job)
			if err != nil {
				return err
			}
			defer body.Close()

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			return writeRows(cmd.Context(), body, out)
		},
	}

	cmd.Flags().StringVar(&jobID, "id", "", "Export job identifier")
	cmd.Flags().StringVar(&output, "output", "", "Output file (default: stdout)")
	cmd.MarkFlagRequired("id")

	return cmd
}

// writeRows decodes the compressed export stream and writes plain CSV.
func writeRows(ctx context.Context, body io.Reader, out io.Writer) error {
	rows, err := decoder.NewRowReader(body)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := csv.NewWriter(out)
	if err := w.Write(rows.Columns()); err != nil {
		return err
	}

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := w.Write(row.Values); err != nil {
			return err
		}
		count++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Wrote %d rows\n", count)
	return nil
}
