// Package cli implements gwdctl, the operator command line for the records backend.
package cli

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
)

type pendingUpdates interface {
	List(ctx context.Context, query dto.PendingUpdateQuery, actor *models.JWTClaims) ([]models.PendingUpdate, error)
	SweepOrphans(ctx context.Context, req dto.OrphanSweepRequest, actor *models.JWTClaims) (*dto.OrphanSweepResult, error)
}

type exports interface {
	Create(ctx context.Context, req dto.ExportRequest, actor *models.JWTClaims) (*models.ExportResult, error)
	Cleanup(ctx context.Context, ttl time.Duration) ([]string, error)
}

// Services are the backend operations gwdctl drives.
type Services struct {
	PendingUpdates pendingUpdates
	Exports        exports
	Reindex        func(ctx context.Context) error
	DB             *sql.DB
	ExportTTL      time.Duration
}

// Factory connects to the backend. The returned function releases it.
type Factory func(ctx context.Context) (*Services, func(), error)

type runtime struct {
	factory  Factory
	operator string
	out      io.Writer
}

func (r *runtime) actor() *models.JWTClaims {
	return &models.JWTClaims{UserID: r.operator, Role: models.RoleEditor, FullName: r.operator}
}

func (r *runtime) with(cmd *cobra.Command, fn func(ctx context.Context, svc *Services) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, release, err := r.factory(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, svc)
}

// NewRootCmd builds the gwdctl command tree.
func NewRootCmd(factory Factory) *cobra.Command {
	rt := &runtime{factory: factory}
	cmd := &cobra.Command{
		Use:           "gwdctl",
		Short:         "Operator tools for the groundwater records backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			rt.out = cmd.OutOrStdout()
		},
	}
	cmd.PersistentFlags().StringVar(&rt.operator, "operator", "gwdctl", "Identity recorded in audit logs")

	cmd.AddCommand(newMigrateCmd(rt))
	cmd.AddCommand(newOrphansCmd(rt))
	cmd.AddCommand(newUpdatesCmd(rt))
	cmd.AddCommand(newExportsCmd(rt))
	cmd.AddCommand(newReindexCmd(rt))
	return cmd
}

func newReindexCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Reload every file into the search index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.with(cmd, func(ctx context.Context, svc *Services) error {
				if svc.Reindex == nil {
					return errSearchDisabled
				}
				if err := svc.Reindex(ctx); err != nil {
					return err
				}
				printOK(rt.out, "search index rebuilt")
				return nil
			})
		},
	}
}
