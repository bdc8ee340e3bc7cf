package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
)

func newExportsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exports",
		Short: "Generate spreadsheets and prune expired ones",
	}

	var req dto.ExportRequest
	var dataset, format string
	create := &cobra.Command{
		Use:   "create",
		Short: "Render a dataset and print its signed download link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Dataset = models.ExportDataset(dataset)
			req.Format = models.ExportFormat(format)
			return rt.with(cmd, func(ctx context.Context, svc *Services) error {
				result, err := svc.Exports.Create(ctx, req, rt.actor())
				if err != nil {
					return err
				}
				printOK(rt.out, "%d row(s) exported", result.Rows)
				fmt.Fprintf(rt.out, "url:     %s\nexpires: %s\n", result.DownloadURL, result.ExpiresAt.Format(time.RFC3339))
				return nil
			})
		},
	}
	create.Flags().StringVar(&dataset, "dataset", string(models.ExportDatasetSites), "sites, files or pending-updates")
	create.Flags().StringVar(&format, "format", string(models.ExportFormatXLSX), "xlsx or csv")
	create.Flags().StringVar(&req.FileNo, "file", "", "Limit to one file number")
	create.Flags().StringVar(&req.Status, "status", "", "Pending update status filter")

	var ttl time.Duration
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete exports older than the signed link lifetime",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.with(cmd, func(ctx context.Context, svc *Services) error {
				age := ttl
				if age <= 0 {
					age = svc.ExportTTL
				}
				removed, err := svc.Exports.Cleanup(ctx, age)
				if err != nil {
					return err
				}
				for _, name := range removed {
					fmt.Fprintf(rt.out, "removed %s\n", name)
				}
				printOK(rt.out, "%d export(s) removed", len(removed))
				return nil
			})
		},
	}
	cleanup.Flags().DurationVar(&ttl, "older-than", 0, "Age threshold; defaults to the signed link lifetime")

	cmd.AddCommand(create, cleanup)
	return cmd
}
