package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Filter condition operators.
const (
	OperatorIn         = "in"
	OperatorNotIn      = "nin"
	OperatorEq         = "eq"
	OperatorNotEq      = "ne"
	OperatorLike       = "like"
	OperatorStartsWith = "startswith"
	OperatorEndsWith   = "endswith"
)

var filterOperators = map[string]struct{}{
	OperatorIn:         {},
	OperatorNotIn:      {},
	OperatorEq:         {},
	OperatorNotEq:      {},
	OperatorLike:       {},
	OperatorStartsWith: {},
	OperatorEndsWith:   {},
}

// FilterCondition is one field/operator/values predicate against an item.
type FilterCondition struct {
	Field    string   `json:"field"`
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

// Validate checks the condition's shape.
func (c *FilterCondition) Validate() error {
	if c.Field == "" {
		return Invalidf("filter condition must name a field")
	}
	if _, ok := filterOperators[c.Operator]; !ok {
		return Invalidf("unknown filter operator %q", c.Operator)
	}
	if len(c.Values) == 0 {
		return Invalidf("filter condition on %s must have values", c.Field)
	}
	return nil
}

// FilterStatement is a conjunction of conditions: all must hold.
type FilterStatement struct {
	Conditions []FilterCondition `json:"conditions"`
}

// ContentFilter is a predicate over item metadata. Statements are combined
// with OR, conditions within a statement with AND. A filter with no
// statements matches every item.
type ContentFilter struct {
	ID             uuid.UUID `db:"id"         json:"id"`
	Name           string    `db:"name"       json:"name"`
	Statements     []FilterStatement `db:"-" json:"statements"`
	StatementsJSON []byte    `db:"statements" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ParseStatements decodes StatementsJSON into Statements.
func (f *ContentFilter) ParseStatements() error {
	if len(f.StatementsJSON) == 0 {
		f.Statements = nil
		return nil
	}
	return json.Unmarshal(f.StatementsJSON, &f.Statements)
}

// EncodeStatements serializes Statements for storage.
func (f *ContentFilter) EncodeStatements() error {
	data, err := json.Marshal(f.Statements)
	if err != nil {
		return err
	}
	f.StatementsJSON = data
	return nil
}

// IsEmpty reports whether the filter matches everything.
func (f *ContentFilter) IsEmpty() bool {
	return f == nil || len(f.Statements) == 0
}

// Validate checks every statement and condition.
func (f *ContentFilter) Validate() error {
	for i := range f.Statements {
		if len(f.Statements[i].Conditions) == 0 {
			return Invalidf("filter statement must have at least one condition")
		}
		for j := range f.Statements[i].Conditions {
			if err := f.Statements[i].Conditions[j].Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// FilterCreateRequest is the payload for creating a content filter.
type FilterCreateRequest struct {
	Name       string            `binding:"required,min=1,max=255" json:"name"`
	Statements []FilterStatement `json:"statements"`
}

// FilterUpdateRequest is the payload for updating a content filter.
type FilterUpdateRequest struct {
	Name       *string           `binding:"omitempty,min=1,max=255" json:"name"`
	Statements []FilterStatement `json:"statements"`
}

// Validate validates the filter update request.
func (r *FilterUpdateRequest) Validate() error {
	if r.Name == nil && r.Statements == nil {
		return ErrNoFieldsToUpdate
	}
	return nil
}
