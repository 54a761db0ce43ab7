package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FetchDestination places a routed copy of an item on a desk/stage, with an
// optional macro run on the copy.
type FetchDestination struct {
	Desk  uuid.UUID `json:"desk"`
	Stage uuid.UUID `json:"stage"`
	Macro string    `json:"macro,omitempty"`
}

// PublishDestination is a fetch destination whose routed copy is then
// auto-published, optionally narrowed to target subscribers or types.
type PublishDestination struct {
	Desk              uuid.UUID `json:"desk"`
	Stage             uuid.UUID `json:"stage"`
	Macro             string    `json:"macro,omitempty"`
	TargetSubscribers []string  `json:"target_subscribers,omitempty"`
	TargetTypes       []string  `json:"target_types,omitempty"`
}

// Actions is the action set of a routing rule. A rule is only valid when at
// least one of fetch, publish or exit is set.
type Actions struct {
	Fetch        []FetchDestination   `json:"fetch,omitempty"`
	Publish      []PublishDestination `json:"publish,omitempty"`
	Exit         bool                 `json:"exit,omitempty"`
	PreserveDesk bool                 `json:"preserve_desk,omitempty"`
}

// IsEmpty reports whether the action set would do nothing at all.
func (a *Actions) IsEmpty() bool {
	return len(a.Fetch) == 0 && len(a.Publish) == 0 && !a.Exit
}

// Rule is one entry of a routing scheme: an optional content filter, an
// optional schedule and an action set. Rules apply in declared order.
type Rule struct {
	Name     string     `json:"name"`
	FilterID *uuid.UUID `json:"filter,omitempty"`
	Actions  Actions    `json:"actions"`
	Schedule *Schedule  `json:"schedule,omitempty"`

	// Filter is the resolved content filter, embedded by the ingest cycle
	// before evaluation begins. Never persisted.
	Filter *ContentFilter `json:"-"`
}

// Scheme is a named, ordered collection of routing rules. Rule order is
// significant: the first matching rule with exit set terminates processing,
// so rules live in a slice, never a map.
type Scheme struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Rules     []Rule    `db:"-"          json:"rules"`
	RulesJSON []byte    `db:"rules"      json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ParseRules decodes RulesJSON into Rules.
func (s *Scheme) ParseRules() error {
	if len(s.RulesJSON) == 0 {
		s.Rules = nil
		return nil
	}
	return json.Unmarshal(s.RulesJSON, &s.Rules)
}

// EncodeRules serializes Rules into RulesJSON for storage.
func (s *Scheme) EncodeRules() error {
	data, err := json.Marshal(s.Rules)
	if err != nil {
		return err
	}
	s.RulesJSON = data
	return nil
}

// Normalize collapses effectively-empty rule schedules. Must run before
// Validate so that a schedule reduced to nothing does not fail the
// day-of-week check.
func (s *Scheme) Normalize() {
	for i := range s.Rules {
		s.Rules[i].Schedule = s.Rules[i].Schedule.Normalize()
	}
}

// Validate checks the authoring-time invariants of a scheme:
// at least one rule, every rule named with a non-empty action set, rule
// names unique within the scheme, and valid schedules.
func (s *Scheme) Validate() error {
	if len(s.Rules) == 0 {
		return Invalidf("a routing scheme must have at least one rule")
	}

	names := make(map[string]struct{}, len(s.Rules))
	for i := range s.Rules {
		rule := &s.Rules[i]
		if rule.Name == "" {
			return Invalidf("a routing rule must have a name")
		}
		if rule.Actions.IsEmpty() {
			return Invalidf("routing rule %q must have actions", rule.Name)
		}
		if _, dup := names[rule.Name]; dup {
			return Invalidf("rule names must be unique within a scheme")
		}
		names[rule.Name] = struct{}{}

		if err := rule.Schedule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SchemeCreateRequest is the payload for creating a routing scheme.
type SchemeCreateRequest struct {
	Name  string `binding:"required,min=1,max=255" json:"name"`
	Rules []Rule `json:"rules"`
}

// SchemeUpdateRequest is the payload for updating a routing scheme.
type SchemeUpdateRequest struct {
	Name  *string `binding:"omitempty,min=1,max=255" json:"name"`
	Rules []Rule  `json:"rules"`
}

// Validate validates the scheme update request.
func (r *SchemeUpdateRequest) Validate() error {
	if r.Name == nil && r.Rules == nil {
		return ErrNoFieldsToUpdate
	}
	return nil
}
