package dispatch

import (
	"strings"

	"github.com/sells-group/callmatch/internal/model"
)

type accessor func(*model.Deal) string

var columns = map[string]accessor{
	"deal - stage":              func(d *model.Deal) string { return d.Stage },
	"deal - pipeline":           func(d *model.Deal) string { return d.Pipeline },
	"deal - owner":              func(d *model.Deal) string { return d.Owner },
	"deal - ca tracking flag":   func(d *model.Deal) string { return d.TrackingFlag },
	"deal - deal status":        func(d *model.Deal) string { return d.Status },
	"deal - title":              func(d *model.Deal) string { return d.Title },
	"deal - unique database id": func(d *model.Deal) string { return d.UniqueDatabaseID },
}

// Date conditions are keyed by the compared value; "Offer Ready > 30" reads
// the deal's "Deal - Offer Ready Date".
var dates = map[string]accessor{
	"stage":               func(d *model.Deal) string { return d.StageDate },
	"offer ready":         func(d *model.Deal) string { return d.OfferReadyDate },
	"offer ready - small": func(d *model.Deal) string { return d.OfferReadySmallDate },
}

func columnAccessor(name string) (accessor, bool) {
	fn, ok := columns[strings.ToLower(strings.TrimSpace(name))]
	return fn, ok
}

func dateAccessor(name string) (accessor, bool) {
	fn, ok := dates[strings.ToLower(strings.TrimSpace(name))]
	return fn, ok
}

// Columns lists the comparison columns conditions may use.
func Columns() []string {
	return []string{
		"Deal - Stage", "Deal - Pipeline", "Deal - Owner", "Deal - CA Tracking Flag",
		"Deal - Deal Status", "Deal - Title", "Deal - Unique Database ID",
	}
}
