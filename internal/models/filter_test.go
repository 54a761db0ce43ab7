package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/newsdesk/ingest-router/internal/models"
)

func TestContentFilterValidate(t *testing.T) {
	testCases := []struct {
		name    string
		filter  models.ContentFilter
		wantErr string
	}{
		{
			name: "valid filter",
			filter: models.ContentFilter{Name: "sports", Statements: []models.FilterStatement{
				{Conditions: []models.FilterCondition{
					{Field: "slugline", Operator: models.OperatorLike, Values: []string{"football"}},
				}},
			}},
		},
		{
			name:   "no statements matches everything and is valid",
			filter: models.ContentFilter{Name: "all"},
		},
		{
			name: "statement without conditions",
			filter: models.ContentFilter{Name: "sports", Statements: []models.FilterStatement{
				{},
			}},
			wantErr: "at least one condition",
		},
		{
			name: "condition without field",
			filter: models.ContentFilter{Name: "sports", Statements: []models.FilterStatement{
				{Conditions: []models.FilterCondition{
					{Operator: models.OperatorEq, Values: []string{"x"}},
				}},
			}},
			wantErr: "must name a field",
		},
		{
			name: "unknown operator",
			filter: models.ContentFilter{Name: "sports", Statements: []models.FilterStatement{
				{Conditions: []models.FilterCondition{
					{Field: "slugline", Operator: "between", Values: []string{"x"}},
				}},
			}},
			wantErr: "unknown filter operator",
		},
		{
			name: "condition without values",
			filter: models.ContentFilter{Name: "sports", Statements: []models.FilterStatement{
				{Conditions: []models.FilterCondition{
					{Field: "slugline", Operator: models.OperatorIn},
				}},
			}},
			wantErr: "must have values",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.filter.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestContentFilterIsEmpty(t *testing.T) {
	var nilFilter *models.ContentFilter
	assert.True(t, nilFilter.IsEmpty())
	assert.True(t, (&models.ContentFilter{Name: "all"}).IsEmpty())
	assert.False(t, (&models.ContentFilter{Statements: []models.FilterStatement{{}}}).IsEmpty())
}
