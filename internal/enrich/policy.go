// Package enrich holds the enrichment rules shared by both contact sources:
// title and county formatting, mailing address, email slots, and the
// routing policy that decides stage, owner and activity text.
package enrich

import (
	"fmt"
	"strings"

	"github.com/sells-group/callmatch/internal/model"
)

// Constant new-deal field values.
const (
	LabelTargeted          = "TARGETED MARKETING"
	PreferredCommunication = "Phone"
	InboundMedium          = "Abandoned Call"
	PhoneNumberFormat      = "Complete"
	PhoneDataSource        = "Mineral Owner"
	ActivityDone           = "To do"
	ActivityType           = "Call"

	StageQualifying = "Staging - Qualifying"
	StageJunior     = "Follow Up - Junior Sales"

	MediumRVM        = "RVM"
	MediumDirectMail = "Direct Mail"
	MediumColdCall   = "Cold Call"
)

// Policy names the people new deals and activities are routed to.
type Policy struct {
	Analyst           string
	DealOwner         string
	TrackingFlag      string
	JuniorAgent       string
	PlaceholderAgents []string
}

// Stage is the pipeline stage a new deal starts in.
func (p Policy) Stage(member string) string {
	if p.JuniorAgent != "" && member == p.JuniorAgent {
		return StageJunior
	}
	return StageQualifying
}

// AssignedUser maps the receiving team member to the user who owns the
// follow-up activity. Shared inboxes and blank members go to the analyst.
func (p Policy) AssignedUser(member string) string {
	member = strings.TrimSpace(member)
	if member == "" || strings.Contains(strings.ToLower(member), "keena") {
		return p.Analyst
	}
	for _, a := range p.PlaceholderAgents {
		if member == a {
			return p.Analyst
		}
	}
	return member
}

// MarketingMedium maps the receiving team to the campaign medium.
func MarketingMedium(team string) string {
	switch strings.TrimSpace(team) {
	case "Ringless Voicemail - LG", "RVM - LG":
		return MediumRVM
	case "Lead Generation", "LG":
		return MediumColdCall
	default:
		return MediumDirectMail
	}
}

// ActivityNote is the note attached to the activity created for a call.
func ActivityNote(c model.Call) string {
	when := c.ContactTimeString()
	switch c.DataSource {
	case model.ChannelJC:
		return fmt.Sprintf("JC abandoned call from %s on %s", c.Origin(), when)
	case model.ChannelRC:
		return fmt.Sprintf("RC abandoned call from %s on %s", c.Origin(), when)
	}

	footer := fmt.Sprintf("Date and Time: %s\n\nTeam Member (Recipient): %s", when, c.TeamMember)
	if c.HasText() {
		return fmt.Sprintf("%s\n\n%s\n\n%s", c.DataSource, c.Text, footer)
	}
	return "Note: the content of this text is empty\n\n" + footer
}

// Subject is the activity subject for a call.
func Subject(c model.Call) string {
	return fmt.Sprintf("Call from %s to %s", c.Origin(), c.Destination())
}

// Apply fills the fields every new-deal row carries regardless of source,
// deriving the call-dependent ones from the profile's first call.
func (p Policy) Apply(pr *model.Profile, tz Timezones) {
	c := pr.Call()
	pr.CreatedAt = c.ContactTime
	pr.Stage = p.Stage(c.TeamMember)
	pr.Owner = p.DealOwner
	pr.AssignedTo = p.AssignedUser(c.TeamMember)
	pr.TrackingFlag = p.TrackingFlag
	pr.MarketingMedium = MarketingMedium(c.Team)
	pr.Note = ActivityNote(c)
	pr.Subject = Subject(c)
	pr.Timezone = tz.Lookup(pr.Number)
	if pr.Summary == "" {
		pr.Summary = model.SummaryCompleted
	}
}

// NoResult builds the row for a number no store could attribute.
func (p Policy) NoResult(calls []model.Call, summary model.Summary, tz Timezones) model.Profile {
	pr := model.Profile{Source: model.SourceNoMatch, Calls: calls, Summary: summary}
	c := pr.Call()
	pr.Number, _ = c.Number()
	origin := c.Origin()
	pr.Title = "No Name " + origin
	pr.PersonName = pr.Title
	if strings.Contains(c.Category, "Junior") {
		pr.Label = LabelTargeted
	}
	p.Apply(&pr, tz)
	return pr
}
