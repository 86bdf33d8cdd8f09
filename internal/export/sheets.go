package export

import (
	"fmt"

	"github.com/sells-group/callmatch/internal/enrich"
	"github.com/sells-group/callmatch/internal/fetcher"
	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/phone"
)

// NewDealColumns is the column order of the NEW DEALS workbook.
var NewDealColumns = append(append([]string{
	"Deal - Deal creation date",
	"Deal - Title",
	"Deal - Label",
	"Deal - Stage",
	"Deal - Owner",
	"Deal - County",
	"Deal - Preferred Communication Method",
	"Deal - Inbound Medium",
	"Deal - Serial Number",
	"Deal - Unique Database ID",
	"Deal - Marketing Medium",
	"Deal - Deal Summary",
	"Deal - Deal Status",
	"Deal - Pipedrive Analyst Tracking Flag",
	"Deal - Phone Number Format",
	"Person - Name",
	"Person - Mailing Address",
	"Person - Email",
}, emailColumns()...),
	"Person - Phone",
	"Person - Phone 1",
	"Person - Mailing Address - Data Source",
	"Person - Phone 1 - Data Source",
	"Activity note",
	"Subject",
	"Assigned to user",
	"Done",
	"Type",
	"Person - Timezone",
	"Deal - BU Database ID",
	"Deal - Contact Group ID",
	"Deal - Value",
)

// FollowUpColumns is the column order of the FOLLOWUP workbook.
var FollowUpColumns = []string{
	"Activity creation date",
	"Deal - ID",
	"Activity - Type",
	"Activity - Subject",
	"Activity - Note",
	"Done",
	"Assigned to user",
}

// AddedPhoneColumns is the column order of the Added Phones workbook.
var AddedPhoneColumns = append([]string{
	"Deal - ID",
	"Person - ID",
	"Person - Phone - Work",
}, phoneColumns()...)

// NoResultColumns is the column order of the NO RESULT workbook.
var NoResultColumns = []string{
	"Deal - Deal creation date",
	"Deal - Title",
	"Deal - Label",
	"Deal - Stage",
	"Deal - Owner",
	"Deal - Preferred Communication Method",
	"Deal - Inbound Medium",
	"Deal - Marketing Medium",
	"Deal - Deal Summary",
	"Deal - Pipedrive Analyst Tracking Flag",
	"Deal - Phone Number Format",
	"Person - Name",
	"Person - Phone",
	"Person - Phone 1",
	"Person - Phone 1 - Data Source",
	"Activity note",
	"Subject",
	"Assigned to user",
	"Done",
	"Type",
	"Person - Timezone",
}

func emailColumns() []string {
	out := make([]string, model.MaxEmails)
	for i := range out {
		out[i] = fmt.Sprintf("Person - Email %d", i+1)
	}
	return out
}

func phoneColumns() []string {
	out := make([]string, 10)
	for i := range out {
		out[i] = fmt.Sprintf("Person - Phone %d", i+1)
	}
	return out
}

func createdAt(p *model.Profile) string {
	if p.CreatedAt.IsZero() {
		return ""
	}
	return p.CreatedAt.Format(model.TimeLayout)
}

// profilePhone is the number written for a profile; withheld origins keep
// their raw value.
func profilePhone(p *model.Profile) string {
	if p.Number != "" {
		return string(p.Number)
	}
	return p.Call().Origin()
}

// NewDeals lays profiles out in the NEW DEALS schema, one row per number.
func NewDeals(profiles []model.Profile) *fetcher.Table {
	t := &fetcher.Table{Header: NewDealColumns}
	for i := range profiles {
		p := &profiles[i]
		num := profilePhone(p)
		row := []string{
			createdAt(p),
			p.Title,
			p.Label,
			p.Stage,
			p.Owner,
			p.County,
			enrich.PreferredCommunication,
			enrich.InboundMedium,
			p.SerialNumber,
			p.UniqueDatabaseID,
			p.MarketingMedium,
			string(p.Summary),
			p.DealStatus,
			p.TrackingFlag,
			enrich.PhoneNumberFormat,
			p.PersonName,
			p.Address,
			p.Email(),
		}
		row = append(row, p.Emails[:]...)
		row = append(row,
			num,
			num,
			p.AddressSource,
			enrich.PhoneDataSource,
			p.Note,
			p.Subject,
			p.AssignedTo,
			enrich.ActivityDone,
			enrich.ActivityType,
			p.Timezone,
			p.BUDatabaseID,
			p.ContactGroupID,
			p.Value,
		)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// NoResults lays unresolved numbers out in the NO RESULT schema.
func NoResults(profiles []model.Profile) *fetcher.Table {
	t := &fetcher.Table{Header: NoResultColumns}
	for i := range profiles {
		p := &profiles[i]
		num := profilePhone(p)
		t.Rows = append(t.Rows, []string{
			createdAt(p),
			p.Title,
			p.Label,
			p.Stage,
			p.Owner,
			enrich.PreferredCommunication,
			enrich.InboundMedium,
			p.MarketingMedium,
			string(p.Summary),
			p.TrackingFlag,
			enrich.PhoneNumberFormat,
			p.PersonName,
			num,
			num,
			enrich.PhoneDataSource,
			p.Note,
			p.Subject,
			p.AssignedTo,
			enrich.ActivityDone,
			enrich.ActivityType,
			p.Timezone,
		})
	}
	return t
}

// FollowUps lays dispatched activities out in the FOLLOWUP schema. A call
// matching several deals produces one activity against all of them, so
// rows are deduplicated on creation date and deal ids, first kept.
func FollowUps(fus []model.FollowUp) *fetcher.Table {
	t := &fetcher.Table{Header: FollowUpColumns}
	seen := make(map[[2]string]bool)
	for _, fu := range fus {
		at := fu.Call.ContactTimeString()
		key := [2]string{at, fu.AllDealIDs}
		if seen[key] {
			continue
		}
		seen[key] = true
		t.Rows = append(t.Rows, []string{
			at,
			fu.AllDealIDs,
			enrich.ActivityType,
			fu.Subject,
			fu.Note,
			enrich.ActivityDone,
			fu.AssignedTo,
		})
	}
	return t
}

// AddedPhones lists deals whose person does not yet carry the calling
// number, with the number written into the first free phone slot and
// appended to the work phone. Deals with every slot taken are left out.
func AddedPhones(fus []model.FollowUp) *fetcher.Table {
	t := &fetcher.Table{Header: AddedPhoneColumns}
	seen := make(map[[2]string]bool)
	for _, fu := range fus {
		origin, ok := fu.Call.Number()
		if !ok {
			continue
		}
		key := [2]string{fu.Deal.ID, string(origin)}
		if seen[key] {
			continue
		}
		seen[key] = true

		slots := fu.Deal.PersonPhones()
		free := -1
		known := false
		for i, s := range slots {
			if k, ok := phone.Normalize(s); ok && k == origin {
				known = true
				break
			}
			if free < 0 && s == "" {
				free = i
			}
		}
		if known || free < 0 {
			continue
		}

		slots[free] = string(origin)
		work := string(origin)
		if fu.Deal.PhoneWork != "" {
			work = fu.Deal.PhoneWork + ", " + work
		}
		t.Rows = append(t.Rows, append([]string{fu.Deal.ID, fu.Deal.PersonID, work}, slots...))
	}
	return t
}
