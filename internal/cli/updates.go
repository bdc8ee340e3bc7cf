package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
)

func newUpdatesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Inspect the pending update registry",
	}

	var (
		fileNo   string
		statuses string
		limit    int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List pending updates, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := dto.PendingUpdateQuery{FileNo: fileNo, Limit: limit}
			for _, raw := range strings.Split(statuses, ",") {
				if status := strings.TrimSpace(raw); status != "" {
					query.Statuses = append(query.Statuses, models.PendingUpdateStatus(status))
				}
			}
			return rt.with(cmd, func(ctx context.Context, svc *Services) error {
				updates, err := svc.PendingUpdates.List(ctx, query, rt.actor())
				if err != nil {
					return err
				}
				printUpdates(rt.out, updates)
				return nil
			})
		},
	}
	list.Flags().StringVar(&fileNo, "file", "", "Filter by file number")
	list.Flags().StringVar(&statuses, "status", "pending", "Comma separated statuses; empty lists all")
	list.Flags().IntVar(&limit, "limit", 50, "Maximum rows")
	cmd.AddCommand(list)
	return cmd
}
