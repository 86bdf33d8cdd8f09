package model

import (
	"time"

	"github.com/sells-group/callmatch/internal/phone"
)

// MaxEmails is the number of email slots a new deal row carries.
const MaxEmails = 17

// Summary is the "Deal - Deal Summary" value of an output row.
type Summary string

const (
	SummaryCompleted     Summary = "Completed"
	SummaryNoInformation Summary = "No Information in Email"
	SummaryCommonName    Summary = "Common Name Error"
)

// Source identifies which store produced a profile.
type Source string

const (
	SourceCRM     Source = "crm"
	SourceA       Source = "bottoms_up"
	SourceB       Source = "cm_db"
	SourceNoMatch Source = "no_result"
)

// Markers written into aggregated fields when a number maps to more than
// one distinct value. The conflict resolver keys off them.
const (
	MultipleMarker     = "Multiple"
	MultipleAddresses  = "Multiple address entries"
	MultipleDatabaseID = "Multiple Database ID"
)

// Profile is the canonical new-deal row for one resolved number.
type Profile struct {
	Source Source
	Number phone.Key
	Calls  []Call // every call sharing Number, in input order

	CreatedAt        time.Time
	Title            string
	Label            string
	Stage            string
	Owner            string
	MarketingMedium  string
	Summary          Summary
	TrackingFlag     string
	SerialNumber     string
	BUDatabaseID     string
	UniqueDatabaseID string
	ContactGroupID   string
	Value            string
	County           string
	DealStatus       string

	PersonName    string
	Emails        [MaxEmails]string
	Address       string
	AddressSource string
	Timezone      string

	Subject    string
	Note       string
	AssignedTo string
}

// Call returns the representative call of the profile.
func (p *Profile) Call() Call {
	if len(p.Calls) == 0 {
		return Call{}
	}
	return p.Calls[0]
}

// Email is the general email field, mirroring the first slot.
func (p *Profile) Email() string {
	return p.Emails[0]
}

// Unresolved is a call no stage could attribute to a single contact.
type Unresolved struct {
	Call    Call
	Summary Summary
}

// Match pairs a call with one CRM deal owning its number.
type Match struct {
	Call       Call
	Deal       *Deal
	AllDealIDs string // every deal id owning the number, " | " joined
}

// FollowUp is a dispatched activity for a call from a known contact.
type FollowUp struct {
	Match
	Subject    string
	AssignedTo string
	Note       string
}

// Outcome is what a contact stage produces from its pending calls:
// single-contact profiles and the calls passed on to the next stage.
type Outcome struct {
	Profiles   []Profile
	Unresolved []Unresolved
}
