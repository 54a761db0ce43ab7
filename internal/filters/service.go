// Package filters evaluates content filters against ingest items.
// A filter is a disjunction of statements; a statement is a conjunction of
// field/operator/values conditions.
package filters

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/newsdesk/ingest-router/internal/logger"
	"github.com/newsdesk/ingest-router/internal/models"
)

// Service implements routing.FilterEvaluator.
type Service struct {
	logger logger.Logger
}

// NewService creates a filter evaluation service.
func NewService(log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{logger: log}
}

// Matches reports whether the filter matches the item. A nil or empty filter
// matches everything.
func (s *Service) Matches(_ context.Context, filter *models.ContentFilter, item *models.Item) (bool, error) {
	if filter.IsEmpty() {
		return true, nil
	}

	for i := range filter.Statements {
		matched, err := s.statementMatches(&filter.Statements[i], item)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) statementMatches(stmt *models.FilterStatement, item *models.Item) (bool, error) {
	for i := range stmt.Conditions {
		matched, err := conditionMatches(&stmt.Conditions[i], item)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

func conditionMatches(cond *models.FilterCondition, item *models.Item) (bool, error) {
	values, err := fieldValues(cond.Field, item)
	if err != nil {
		return false, err
	}

	switch cond.Operator {
	case models.OperatorIn:
		return anyOverlap(values, cond.Values), nil
	case models.OperatorNotIn:
		return !anyOverlap(values, cond.Values), nil
	case models.OperatorEq:
		return len(values) == 1 && len(cond.Values) == 1 &&
			strings.EqualFold(values[0], cond.Values[0]), nil
	case models.OperatorNotEq:
		return !(len(values) == 1 && len(cond.Values) == 1 &&
			strings.EqualFold(values[0], cond.Values[0])), nil
	case models.OperatorLike:
		return anyMatch(values, cond.Values, strings.Contains), nil
	case models.OperatorStartsWith:
		return anyMatch(values, cond.Values, strings.HasPrefix), nil
	case models.OperatorEndsWith:
		return anyMatch(values, cond.Values, strings.HasSuffix), nil
	default:
		return false, fmt.Errorf("unknown filter operator %q", cond.Operator)
	}
}

// fieldValues extracts the item's value(s) for a filterable field name.
func fieldValues(field string, item *models.Item) ([]string, error) {
	switch field {
	case "headline":
		return []string{item.Headline}, nil
	case "slugline":
		return []string{item.Slugline}, nil
	case "body_html":
		return []string{item.BodyHTML}, nil
	case "source":
		return []string{item.Source}, nil
	case "type":
		return []string{item.Type}, nil
	case "guid":
		return []string{item.GUID}, nil
	case "urgency":
		return []string{strconv.Itoa(item.Urgency)}, nil
	case "keywords":
		return item.Keywords, nil
	case "anpa_category":
		qcodes := make([]string, 0, len(item.AnpaCategory))
		for _, c := range item.AnpaCategory {
			qcodes = append(qcodes, c.QCode)
		}
		return qcodes, nil
	default:
		return nil, fmt.Errorf("unknown filter field %q", field)
	}
}

// anyOverlap reports a case-insensitive non-empty intersection.
func anyOverlap(values, wanted []string) bool {
	for _, v := range values {
		for _, w := range wanted {
			if strings.EqualFold(v, w) {
				return true
			}
		}
	}
	return false
}

// anyMatch applies a case-insensitive string predicate across field values
// and condition values.
func anyMatch(values, wanted []string, pred func(s, substr string) bool) bool {
	for _, v := range values {
		for _, w := range wanted {
			if pred(strings.ToLower(v), strings.ToLower(w)) {
				return true
			}
		}
	}
	return false
}
