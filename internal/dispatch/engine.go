package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/callmatch/internal/model"
)

// Owner placeholders resolved against the deal being dispatched.
const (
	OwnerDealOwner    = "Deal Owner"
	OwnerTrackingFlag = "CA Tracking Flag"
	None              = "None"
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// Assignment is the follow-up chosen for a deal. Empty strings mean no
// value; Pipeline is 0 when no designation matched.
type Assignment struct {
	Pipeline int
	Subject  string
	Owner    string
}

// Engine evaluates the rule tables against deals.
type Engine struct {
	tables *Tables
	ids    []int
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the source of "today" for date conditions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine over validated tables.
func NewEngine(t *Tables, opts ...Option) *Engine {
	e := &Engine{tables: t, ids: t.IDs(), now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Pipeline returns the id of the first designation, in document order,
// whose name matches the deal's pipeline.
func (e *Engine) Pipeline(pipeline string) (int, bool) {
	p := strings.ToLower(strings.TrimSpace(pipeline))
	for _, id := range e.ids {
		name := strings.ToLower(strings.TrimSpace(e.tables.Designations[id].Pipeline))
		if name == "" {
			continue
		}
		if strings.Contains(name, "sales") {
			if p == name+" pipeline" {
				return id, true
			}
			continue
		}
		if strings.Contains(p, name) {
			return id, true
		}
	}
	return 0, false
}

// Assign picks the follow-up subject and owner for d. Date conditions
// return as soon as one holds; the first exact-match condition is kept and
// returned only if no date condition holds. Without any satisfied
// condition the pipeline default applies.
func (e *Engine) Assign(d *model.Deal) (Assignment, error) {
	id, ok := e.Pipeline(d.Pipeline)
	if !ok {
		return Assignment{}, nil
	}
	des := e.tables.Designations[id]

	var fallback *Assignment
	today := e.now()
	for i := range e.tables.Conditions[id] {
		c := &e.tables.Conditions[id][i]
		col, ok := columnAccessor(c.Column)
		if !ok {
			return Assignment{}, &RuleError{Pipeline: id, Key: c.Key, Reason: fmt.Sprintf("unknown comparison column %q", c.Column)}
		}
		value := strings.TrimSpace(col(d))

		if c.IsDate() && strings.EqualFold(c.lhs, value) {
			held, err := c.holds(d, today)
			if err != nil {
				return Assignment{}, &RuleError{Pipeline: id, Key: c.Key, Reason: err.Error()}
			}
			if held {
				return Assignment{Pipeline: id, Subject: c.FollowUp, Owner: resolveOwner(c.Owner, d)}, nil
			}
			continue
		}

		if fallback == nil && strings.EqualFold(value, c.Key) {
			fallback = &Assignment{Pipeline: id, Subject: c.FollowUp, Owner: resolveOwner(c.Owner, d)}
		}
	}
	if fallback != nil {
		return *fallback, nil
	}

	subject := des.FollowUp
	if subject == None {
		subject = ""
	}
	return Assignment{Pipeline: id, Subject: subject, Owner: resolveOwner(des.Owner, d)}, nil
}

// holds compares the age of the condition's date against its day count.
// A blank date never holds.
func (c *Condition) holds(d *model.Deal, today time.Time) (bool, error) {
	get, ok := dateAccessor(c.lhs)
	if !ok {
		return false, fmt.Errorf("no date column for %q", c.lhs)
	}
	raw := strings.TrimSpace(get(d))
	if raw == "" {
		return false, nil
	}
	at, err := parseDate(raw)
	if err != nil {
		return false, err
	}

	days := daysBetween(at, today)
	if c.op == '>' {
		return days > c.days, nil
	}
	return days < c.days, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", raw)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func resolveOwner(owner string, d *model.Deal) string {
	switch owner {
	case OwnerDealOwner:
		return d.Owner
	case OwnerTrackingFlag:
		return d.TrackingFlag
	case None:
		return ""
	default:
		return owner
	}
}
