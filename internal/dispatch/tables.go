// Package dispatch assigns a follow-up subject and owner to calls from
// known contacts, driven by per-pipeline designation and condition tables.
package dispatch

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Designation is a pipeline's name and its default follow-up and owner.
type Designation struct {
	Pipeline string `yaml:"pipeline"`
	FollowUp string `yaml:"follow_up"`
	Owner    string `yaml:"owner"`
}

// Condition is one entry of a pipeline's ordered condition list.
// Keys of the form "<value> > N" or "<value> < N" compare the age in days
// of the date that belongs to <value>; any other key is an exact match on
// the comparison column.
type Condition struct {
	Key      string `yaml:"key"`
	Column   string `yaml:"column"`
	FollowUp string `yaml:"follow_up"`
	Owner    string `yaml:"owner"`

	op   byte // '>' or '<' for date conditions
	lhs  string
	days int
}

// IsDate reports whether the condition compares a date.
func (c *Condition) IsDate() bool { return c.op != 0 }

// RuleError reports a malformed designation or condition, or a deal whose
// date a condition could not read.
type RuleError struct {
	Pipeline int
	Key      string
	Reason   string
}

func (e *RuleError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("dispatch: pipeline %d: %s", e.Pipeline, e.Reason)
	}
	return fmt.Sprintf("dispatch: pipeline %d rule %q: %s", e.Pipeline, e.Key, e.Reason)
}

// Tables holds both rule documents keyed by integer pipeline id.
type Tables struct {
	Designations map[int]Designation `yaml:"designations"`
	Conditions   map[int][]Condition `yaml:"conditions"`

	order []int // designation ids in document order
}

// IDs returns the designated pipeline ids in the order the designation
// document lists them. Ids added to Designations by hand follow in
// ascending order.
func (t *Tables) IDs() []int {
	ids := make([]int, 0, len(t.Designations))
	seen := make(map[int]bool, len(t.Designations))
	for _, id := range t.order {
		if _, ok := t.Designations[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var rest []int
	for id := range t.Designations {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Ints(rest)
	return append(ids, rest...)
}

// LoadTables reads and validates the two rule documents.
func LoadTables(designationsPath, conditionsPath string) (*Tables, error) {
	designations, err := os.ReadFile(designationsPath)
	if err != nil {
		return nil, eris.Wrap(err, "dispatch: read designations")
	}
	conditions, err := os.ReadFile(conditionsPath)
	if err != nil {
		return nil, eris.Wrap(err, "dispatch: read conditions")
	}
	return ParseTables(designations, conditions)
}

// ParseTables decodes the two documents (JSON or YAML) and validates them.
//
// Designations: {"<id>": [pipeline, follow-up, owner], ...}
// Conditions:   {"<id>": [{"<key>": [column, follow-up, owner]}, ...], ...}
func ParseTables(designations, conditions []byte) (*Tables, error) {
	t := &Tables{
		Designations: make(map[int]Designation),
		Conditions:   make(map[int][]Condition),
	}

	// Designations are walked as nodes: the first matching designation wins,
	// so document order is kept.
	var doc yaml.Node
	if err := yaml.Unmarshal(designations, &doc); err != nil {
		return nil, eris.Wrap(err, "dispatch: parse designations")
	}
	if err := t.decodeDesignations(&doc); err != nil {
		return nil, err
	}

	// Condition lists are decoded through nodes so the key order inside
	// each entry survives.
	var rawConditions map[string]yaml.Node
	if err := yaml.Unmarshal(conditions, &rawConditions); err != nil {
		return nil, eris.Wrap(err, "dispatch: parse conditions")
	}
	for k, node := range rawConditions {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, eris.Errorf("dispatch: condition key %q is not a pipeline id", k)
		}
		list, err := decodeConditions(id, &node)
		if err != nil {
			return nil, err
		}
		t.Conditions[id] = list
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tables) decodeDesignations(doc *yaml.Node) error {
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil
		}
		doc = doc.Content[0]
	}
	if doc.Kind == 0 || (doc.Kind == yaml.ScalarNode && doc.Tag == "!!null") {
		return nil
	}
	if doc.Kind != yaml.MappingNode {
		return eris.New("dispatch: designations must be an object keyed by pipeline id")
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		k := doc.Content[i].Value
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return eris.Errorf("dispatch: designation key %q is not a pipeline id", k)
		}
		var v []string
		if err := doc.Content[i+1].Decode(&v); err != nil {
			return &RuleError{Pipeline: id, Reason: err.Error()}
		}
		if len(v) != 3 {
			return &RuleError{Pipeline: id, Reason: fmt.Sprintf("designation needs 3 values, got %d", len(v))}
		}
		if _, dup := t.Designations[id]; dup {
			return &RuleError{Pipeline: id, Reason: "designation listed twice"}
		}
		t.Designations[id] = Designation{Pipeline: v[0], FollowUp: v[1], Owner: v[2]}
		t.order = append(t.order, id)
	}
	return nil
}

func decodeConditions(id int, node *yaml.Node) ([]Condition, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, &RuleError{Pipeline: id, Reason: "conditions must be a list"}
	}

	var out []Condition
	for _, entry := range node.Content {
		if entry.Kind != yaml.MappingNode {
			return nil, &RuleError{Pipeline: id, Reason: "condition entry must be an object"}
		}
		for i := 0; i+1 < len(entry.Content); i += 2 {
			key := entry.Content[i].Value
			var values []string
			if err := entry.Content[i+1].Decode(&values); err != nil {
				return nil, &RuleError{Pipeline: id, Key: key, Reason: err.Error()}
			}
			if len(values) != 3 {
				return nil, &RuleError{Pipeline: id, Key: key, Reason: fmt.Sprintf("condition needs 3 values, got %d", len(values))}
			}
			out = append(out, Condition{Key: key, Column: values[0], FollowUp: values[1], Owner: values[2]})
		}
	}
	return out, nil
}

// Validate resolves every condition's comparison column and date accessor
// and parses day counts, so a malformed rule fails before any row is
// dispatched.
func (t *Tables) Validate() error {
	var errs []string
	for _, id := range sortedKeys(t.Conditions) {
		list := t.Conditions[id]
		for i := range list {
			if err := list[i].compile(); err != nil {
				errs = append(errs, (&RuleError{Pipeline: id, Key: list[i].Key, Reason: err.Error()}).Error())
			}
		}
	}
	if len(errs) > 0 {
		return eris.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Condition) compile() error {
	if _, ok := columnAccessor(c.Column); !ok {
		return fmt.Errorf("unknown comparison column %q", c.Column)
	}

	c.op, c.lhs, c.days = 0, "", 0
	for _, op := range []string{" > ", " < "} {
		lhs, rhs, found := strings.Cut(c.Key, op)
		if !found {
			continue
		}
		days, err := strconv.Atoi(strings.TrimSpace(rhs))
		if err != nil {
			return fmt.Errorf("day count %q is not an integer", rhs)
		}
		if _, ok := dateAccessor(lhs); !ok {
			return fmt.Errorf("no date column for %q", lhs)
		}
		c.op, c.lhs, c.days = op[1], strings.TrimSpace(lhs), days
		return nil
	}
	return nil
}

func sortedKeys(m map[int][]Condition) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
