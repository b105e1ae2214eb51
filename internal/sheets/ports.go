package sheets

import (
	"context"

	"carteira/internal/core"
)

// Ports for outbound report adapters.
type (
	// ReportWriter publishes a monthly overview to an external sheet.
	ReportWriter interface {
		// WriteMonthOverview appends the overview and returns a reference
		// to where it landed (range or synthetic id).
		WriteMonthOverview(ctx context.Context, o core.MonthOverview) (rowRef string, err error)
	}
)
