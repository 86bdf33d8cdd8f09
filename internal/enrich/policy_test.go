package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/phone"
)

func testPolicy() Policy {
	return Policy{
		Analyst:           "Jannin",
		DealOwner:         "Stephanie",
		TrackingFlag:      "PA - Joyce",
		JuniorAgent:       "Froiland Maniulit",
		PlaceholderAgents: []string{"Anna Grace Tayag", "Marketing Team"},
	}
}

func TestMarketingMedium(t *testing.T) {
	t.Parallel()

	tests := []struct {
		team string
		want string
	}{
		{"Ringless Voicemail - LG", MediumRVM},
		{"RVM - LG", MediumRVM},
		{"Call Center", MediumDirectMail},
		{"Lead Generation", MediumColdCall},
		{"LG", MediumColdCall},
		{"", MediumDirectMail},
		{"Something Else", MediumDirectMail},
	}

	for _, tt := range tests {
		t.Run(tt.team, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MarketingMedium(tt.team))
		})
	}
}

func TestPolicy_StageAndAssignedUser(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	assert.Equal(t, StageJunior, p.Stage("Froiland Maniulit"))
	assert.Equal(t, StageQualifying, p.Stage("Maria"))
	assert.Equal(t, StageQualifying, p.Stage(""))

	assert.Equal(t, "Jannin", p.AssignedUser(""))
	assert.Equal(t, "Jannin", p.AssignedUser("Marketing Team"))
	assert.Equal(t, "Jannin", p.AssignedUser("KEENA Santos"))
	assert.Equal(t, "Maria", p.AssignedUser(" Maria "))
}

func TestActivityNote(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	jc := model.Call{From: "15551234567", DataSource: model.ChannelJC, ContactTime: at}
	assert.Equal(t, "JC abandoned call from 5551234567 on 2024-05-01 09:30:00", ActivityNote(jc))

	rc := model.Call{From: "5551234567", DataSource: model.ChannelRC, ContactTime: at}
	assert.Equal(t, "RC abandoned call from 5551234567 on 2024-05-01 09:30:00", ActivityNote(rc))

	text := model.Call{From: "5551234567", DataSource: "SMS", Text: "call me", TeamMember: "Maria", ContactTime: at}
	assert.Equal(t, "SMS\n\ncall me\n\nDate and Time: 2024-05-01 09:30:00\n\nTeam Member (Recipient): Maria", ActivityNote(text))

	empty := model.Call{From: "5551234567", DataSource: "SMS", TeamMember: "Maria", ContactTime: at}
	assert.Equal(t, "Note: the content of this text is empty\n\nDate and Time: 2024-05-01 09:30:00\n\nTeam Member (Recipient): Maria", ActivityNote(empty))
}

func TestSubject(t *testing.T) {
	t.Parallel()
	c := model.Call{From: "1 (555) 123-4567", To: "5559990000"}
	assert.Equal(t, "Call from 5551234567 to 5559990000", Subject(c))
}

func TestPolicy_Apply(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	pr := model.Profile{
		Number: phone.Key("5551234567"),
		Calls:  []model.Call{{From: "5551234567", To: "5559990000", Team: "LG", TeamMember: "Froiland Maniulit", ContactTime: at}},
	}

	testPolicy().Apply(&pr, Timezones{"555": "Central"})

	assert.Equal(t, at, pr.CreatedAt)
	assert.Equal(t, StageJunior, pr.Stage)
	assert.Equal(t, "Stephanie", pr.Owner)
	assert.Equal(t, "Froiland Maniulit", pr.AssignedTo)
	assert.Equal(t, "PA - Joyce", pr.TrackingFlag)
	assert.Equal(t, MediumColdCall, pr.MarketingMedium)
	assert.Equal(t, "Central", pr.Timezone)
	assert.Equal(t, model.SummaryCompleted, pr.Summary)
	assert.Equal(t, "Call from 5551234567 to 5559990000", pr.Subject)

	kept := model.Profile{Summary: model.SummaryNoInformation}
	testPolicy().Apply(&kept, nil)
	assert.Equal(t, model.SummaryNoInformation, kept.Summary)
	assert.Equal(t, "", kept.Timezone)
}

func TestPolicy_NoResult(t *testing.T) {
	t.Parallel()

	calls := []model.Call{
		{From: "15551234567", To: "5559990000", Category: "Junior Leads", TeamMember: "Maria"},
		{From: "5551234567", To: "5559990000"},
	}
	pr := testPolicy().NoResult(calls, model.SummaryCommonName, Timezones{"555": "Central"})

	assert.Equal(t, model.SourceNoMatch, pr.Source)
	assert.Equal(t, phone.Key("5551234567"), pr.Number)
	assert.Equal(t, "No Name 5551234567", pr.Title)
	assert.Equal(t, "No Name 5551234567", pr.PersonName)
	assert.Equal(t, LabelTargeted, pr.Label)
	assert.Equal(t, model.SummaryCommonName, pr.Summary)
	assert.Equal(t, "Maria", pr.AssignedTo)
	assert.Equal(t, "Central", pr.Timezone)
	assert.Len(t, pr.Calls, 2)

	anon := testPolicy().NoResult([]model.Call{{From: "Anonymous"}}, model.SummaryNoInformation, nil)
	assert.Equal(t, "No Name Anonymous", anon.Title)
	assert.Equal(t, "", anon.Label)
	assert.Equal(t, "Jannin", anon.AssignedTo)
}
