package cli

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gwd-records-api/migrations"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database schema migrations",
	}
	for _, direction := range []string{"up", "down", "status"} {
		cmd.AddCommand(&cobra.Command{
			Use:   direction,
			Short: fmt.Sprintf("Run goose %s", direction),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return rt.with(cmd, func(ctx context.Context, svc *Services) error {
					if err := migrate(ctx, svc, direction); err != nil {
						return err
					}
					if direction != "status" {
						printOK(rt.out, "migrate %s complete", direction)
					}
					return nil
				})
			},
		})
	}
	return cmd
}

func migrate(ctx context.Context, svc *Services, direction string) error {
	if svc.DB == nil {
		return fmt.Errorf("migrate: no database connection")
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	switch direction {
	case "up":
		return goose.UpContext(ctx, svc.DB, ".")
	case "down":
		return goose.DownContext(ctx, svc.DB, ".")
	case "status":
		return goose.StatusContext(ctx, svc.DB, ".")
	default:
		return fmt.Errorf("migrate: unknown direction %q", direction)
	}
}
