// Package cascade runs call records through the identity resolution chain:
// CRM deals first, then each contact store in turn, with whatever is left
// reported as unresolved.
package cascade

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/crm"
	"github.com/sells-group/callmatch/internal/dispatch"
	"github.com/sells-group/callmatch/internal/enrich"
	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/resolve"
)

// Stage resolves pending calls against one contact store. Every pending
// call must come back either inside a profile or in Unresolved.
type Stage interface {
	Name() string
	Resolve(pending []model.Unresolved) (model.Outcome, error)
}

// Dispatcher picks the follow-up subject and owner for a known deal.
type Dispatcher interface {
	Assign(d *model.Deal) (dispatch.Assignment, error)
}

// StageCount records how many calls a stage saw and settled.
type StageCount struct {
	Name     string
	In       int
	Profiles int
	Resolved int
	Out      int
}

// Report is the result of one run over a call import.
type Report struct {
	FollowUps []model.FollowUp
	NewDeals  []model.Profile
	NoResults []model.Profile
	Skipped   int
	Linked    int
	Stages    []StageCount
}

// Runner wires the CRM index, the dispatch engine and the contact stages.
type Runner struct {
	index    *crm.Index
	dispatch Dispatcher
	stages   []Stage
	link     crm.DealLookup
	policy   enrich.Policy
	tz       enrich.Timezones
}

// Option configures a Runner.
type Option func(*Runner)

// WithDealLink moves calls whose number a contact store has tied to an
// exported deal into the follow-up set.
func WithDealLink(lookup crm.DealLookup) Option {
	return func(r *Runner) { r.link = lookup }
}

// NewRunner builds a runner. Stages run in the order given.
func NewRunner(index *crm.Index, d Dispatcher, policy enrich.Policy, tz enrich.Timezones, stages []Stage, opts ...Option) *Runner {
	r := &Runner{index: index, dispatch: d, stages: stages, policy: policy, tz: tz}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run resolves one import's calls. Calls that already carry a deal id are
// skipped; every other call ends up in exactly one of the report's
// follow-ups, new deals or no-results.
func (r *Runner) Run(calls []model.Call) (*Report, error) {
	if len(calls) == 0 {
		return nil, ErrNoInput
	}
	log := zap.L().With(zap.Int("calls", len(calls)))

	report := &Report{}
	var pending []model.Call
	for _, c := range calls {
		if c.DealID != "" {
			report.Skipped++
			continue
		}
		pending = append(pending, c)
	}

	known, unknown := r.index.Match(pending)
	if r.link != nil {
		linked, rest := r.index.Link(unknown, r.link)
		report.Linked = len(unknown) - len(rest)
		known = append(known, linked...)
		unknown = rest
	}
	fus, err := r.followUps(known)
	if err != nil {
		return nil, err
	}
	report.FollowUps = fus

	remaining := make([]model.Unresolved, 0, len(unknown))
	for _, c := range unknown {
		remaining = append(remaining, model.Unresolved{Call: c})
	}

	for _, s := range r.stages {
		out, err := s.Resolve(remaining)
		if err != nil {
			return nil, eris.Wrapf(err, "cascade: stage %s", s.Name())
		}
		settled := 0
		for i := range out.Profiles {
			settled += len(out.Profiles[i].Calls)
		}
		if settled+len(out.Unresolved) != len(remaining) {
			return nil, eris.Errorf("cascade: stage %s returned %d of %d calls", s.Name(), settled+len(out.Unresolved), len(remaining))
		}
		report.Stages = append(report.Stages, StageCount{
			Name:     s.Name(),
			In:       len(remaining),
			Profiles: len(out.Profiles),
			Resolved: settled,
			Out:      len(out.Unresolved),
		})
		report.NewDeals = append(report.NewDeals, out.Profiles...)
		remaining = out.Unresolved
	}

	report.NoResults = r.noResults(remaining)

	log.Info("cascade: run complete",
		zap.Int("skipped", report.Skipped),
		zap.Int("follow_ups", len(report.FollowUps)),
		zap.Int("linked", report.Linked),
		zap.Int("new_deals", len(report.NewDeals)),
		zap.Int("no_results", len(report.NoResults)),
	)
	return report, nil
}

// followUps dispatches every known call. A deal the rules cannot be
// evaluated against fails the whole import.
func (r *Runner) followUps(known []model.Match) ([]model.FollowUp, error) {
	out := make([]model.FollowUp, 0, len(known))
	for _, m := range known {
		a, err := r.dispatch.Assign(m.Deal)
		if err != nil {
			return nil, eris.Wrapf(err, "cascade: dispatch deal %s", m.Deal.ID)
		}
		out = append(out, model.FollowUp{
			Match:      m,
			Note:       enrich.ActivityNote(m.Call),
			Subject:    a.Subject,
			AssignedTo: a.Owner,
		})
	}
	return out, nil
}

// noResults builds one row per origin number. Withheld origins are grouped
// by their raw value.
func (r *Runner) noResults(pending []model.Unresolved) []model.Profile {
	groups, order, rest := resolve.GroupByNumber(pending)

	raw := make(map[string][]model.Unresolved)
	var rawOrder []string
	for _, u := range rest {
		k := u.Call.Origin()
		if _, seen := raw[k]; !seen {
			rawOrder = append(rawOrder, k)
		}
		raw[k] = append(raw[k], u)
	}

	out := make([]model.Profile, 0, len(order)+len(rawOrder))
	build := func(us []model.Unresolved) {
		summary := us[0].Summary
		if summary == "" {
			summary = model.SummaryNoInformation
		}
		out = append(out, r.policy.NoResult(resolve.Calls(us), summary, r.tz))
	}
	for _, k := range order {
		build(groups[k])
	}
	for _, k := range rawOrder {
		build(raw[k])
	}
	return out
}
