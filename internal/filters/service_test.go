package filters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/ingest-router/internal/filters"
	"github.com/newsdesk/ingest-router/internal/models"
)

func condition(field, operator string, values ...string) models.FilterCondition {
	return models.FilterCondition{Field: field, Operator: operator, Values: values}
}

func singleStatement(conds ...models.FilterCondition) *models.ContentFilter {
	return &models.ContentFilter{
		Name:       "test",
		Statements: []models.FilterStatement{{Conditions: conds}},
	}
}

func TestMatchesOperators(t *testing.T) {
	item := &models.Item{
		GUID:     "urn:newsml:item-1",
		Type:     models.ItemTypeText,
		Headline: "Oil prices climb on supply fears",
		Slugline: "oil-markets",
		Source:   "Reuters",
		Urgency:  3,
		Keywords: []string{"energy", "markets"},
		AnpaCategory: []models.Category{
			{QCode: "f", Name: "Finance"},
		},
	}

	testCases := []struct {
		name string
		cond models.FilterCondition
		want bool
	}{
		{"in matches keyword", condition("keywords", models.OperatorIn, "Energy"), true},
		{"in misses keyword", condition("keywords", models.OperatorIn, "politics"), false},
		{"nin inverts in", condition("keywords", models.OperatorNotIn, "politics"), true},
		{"eq is case-insensitive", condition("source", models.OperatorEq, "reuters"), true},
		{"eq misses", condition("source", models.OperatorEq, "AP"), false},
		{"ne inverts eq", condition("source", models.OperatorNotEq, "AP"), true},
		{"like matches substring", condition("headline", models.OperatorLike, "supply"), true},
		{"like misses", condition("headline", models.OperatorLike, "weather"), false},
		{"startswith", condition("slugline", models.OperatorStartsWith, "oil"), true},
		{"startswith misses", condition("slugline", models.OperatorStartsWith, "markets"), false},
		{"endswith", condition("slugline", models.OperatorEndsWith, "markets"), true},
		{"urgency compares as string", condition("urgency", models.OperatorEq, "3"), true},
		{"anpa_category matches qcode", condition("anpa_category", models.OperatorIn, "F"), true},
	}

	svc := filters.NewService(nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Matches(context.Background(), singleStatement(tc.cond), item)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesStatementsAreORedConditionsANDed(t *testing.T) {
	svc := filters.NewService(nil)
	item := &models.Item{Slugline: "oil-markets", Source: "Reuters"}

	// Both conditions in one statement must hold.
	filter := singleStatement(
		condition("slugline", models.OperatorLike, "oil"),
		condition("source", models.OperatorEq, "AP"),
	)
	got, err := svc.Matches(context.Background(), filter, item)
	require.NoError(t, err)
	assert.False(t, got)

	// Split into two statements, either may hold.
	filter = &models.ContentFilter{
		Name: "test",
		Statements: []models.FilterStatement{
			{Conditions: []models.FilterCondition{condition("source", models.OperatorEq, "AP")}},
			{Conditions: []models.FilterCondition{condition("slugline", models.OperatorLike, "oil")}},
		},
	}
	got, err = svc.Matches(context.Background(), filter, item)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestMatchesEmptyFilterMatchesEverything(t *testing.T) {
	svc := filters.NewService(nil)

	got, err := svc.Matches(context.Background(), nil, &models.Item{})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = svc.Matches(context.Background(), &models.ContentFilter{Name: "all"}, &models.Item{})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestMatchesUnknownFieldErrors(t *testing.T) {
	svc := filters.NewService(nil)

	filter := singleStatement(condition("priority", models.OperatorEq, "1"))
	_, err := svc.Matches(context.Background(), filter, &models.Item{})
	assert.ErrorContains(t, err, "unknown filter field")
}
