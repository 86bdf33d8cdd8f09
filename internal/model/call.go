package model

import (
	"time"

	"github.com/sells-group/callmatch/internal/phone"
)

// TimeLayout renders contact times in notes and output workbooks.
const TimeLayout = "2006-01-02 15:04:05"

// Channel tags that get a one-line activity note.
const (
	ChannelJC = "JC Call"
	ChannelRC = "RC Call"
)

// Call is one inbound or abandoned call read from a call import.
type Call struct {
	Row         int // 1-based position in the import, header excluded
	ContactTime time.Time
	From        string
	To          string
	Text        string
	Category    string
	DataSource  string
	Team        string
	TeamMember  string
	DealID      string
}

// Number returns the canonical key of the origin number.
func (c Call) Number() (phone.Key, bool) {
	return phone.Normalize(c.From)
}

// Origin is the origin number as written to output rows.
func (c Call) Origin() string {
	return phone.MustNormalize(c.From)
}

// Destination is the dialled number as written to output rows.
func (c Call) Destination() string {
	return phone.MustNormalize(c.To)
}

// HasText reports whether the call carried a payload.
func (c Call) HasText() bool {
	return c.Text != ""
}

// ContactTimeString formats ContactTime, or "" when it was not parsed.
func (c Call) ContactTimeString() string {
	if c.ContactTime.IsZero() {
		return ""
	}
	return c.ContactTime.Format(TimeLayout)
}
