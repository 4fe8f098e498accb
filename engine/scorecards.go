package engine

import (
	"github.com/spektr-org/pgexplorer/schema"
)

// ============================================================================
// SCORECARD BUILDER — Count of countries + Sum of X / Y / Z
// ============================================================================

// BuildScorecards computes the summary cards for a view. sch decides which
// columns are numeric; it may be nil for ad-hoc views.
func BuildScorecards(view RecordView, sch *schema.Config, x, y, z string) Scorecards {
	return Scorecards{
		CountCountries: Scorecard{
			Title: "Count of Countries",
			Value: formatCount(CountDistinct(view, schema.ColCountry)),
		},
		SumX: sumCard(view, sch, x),
		SumY: sumCard(view, sch, y),
		SumZ: sumCard(view, sch, z),
	}
}

func sumCard(view RecordView, sch *schema.Config, column string) Scorecard {
	return Scorecard{
		Title: "Sum of " + column,
		Value: SumOrNA(view, sch, column),
	}
}
