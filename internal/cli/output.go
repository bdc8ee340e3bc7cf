package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/noah-isme/gwd-records-api/internal/models"
)

var errSearchDisabled = errors.New("search is not configured")

var statusColors = map[models.PendingUpdateStatus]*color.Color{
	models.PendingUpdateStatusPending:              color.New(color.FgYellow),
	models.PendingUpdateStatusApproved:             color.New(color.FgGreen),
	models.PendingUpdateStatusRejected:             color.New(color.FgRed),
	models.PendingUpdateStatusSupervisorUnassigned: color.New(color.FgMagenta),
}

func statusLabel(status models.PendingUpdateStatus) string {
	if c, ok := statusColors[status]; ok {
		return c.Sprint(string(status))
	}
	return string(status)
}

func printOK(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgGreen).Sprint("OK"), fmt.Sprintf(format, args...))
}

func printUpdates(w io.Writer, updates []models.PendingUpdate) {
	if len(updates) == 0 {
		fmt.Fprintln(w, color.New(color.FgHiBlack).Sprint("(none)"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tSUBMITTED BY\tSUBMITTED\tSITES\tSTATUS")
	for _, u := range updates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			u.ID, u.FileNo, u.SubmittedByName, u.SubmittedAt.Format(time.DateTime), len(u.UpdatedSiteDetails), statusLabel(u.Status))
	}
	_ = tw.Flush()
}
