package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gwd-records-api/internal/dto"
)

func newOrphansCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Manage pending updates whose submitter no longer supervises the site",
	}

	var req dto.OrphanSweepRequest
	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Move orphaned pending updates to supervisor-unassigned",
		Long: `Checks every pending update (or those of one submitter or file) and moves
updates whose file or site disappeared, or whose submitter no longer holds the
site, to supervisor-unassigned. Running it twice changes nothing the second time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.with(cmd, func(ctx context.Context, svc *Services) error {
				result, err := svc.PendingUpdates.SweepOrphans(ctx, req, rt.actor())
				if err != nil {
					return err
				}
				printUpdates(rt.out, result.Transitioned)
				fmt.Fprintf(rt.out, "%s %d update(s) moved to supervisor-unassigned\n",
					color.New(color.FgCyan).Sprint("sweep:"), result.Count)
				return nil
			})
		},
	}
	sweep.Flags().StringVar(&req.SubmittedBy, "submitter", "", "Only sweep updates submitted by this user id")
	sweep.Flags().StringVar(&req.FileNo, "file", "", "Only sweep updates for this file number")
	cmd.AddCommand(sweep)
	return cmd
}
