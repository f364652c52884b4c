package categorize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/jira-mirror/internal/domain"
)

func sampleTicket() *domain.Ticket {
	assignee := "alice@example.com"
	return &domain.Ticket{
		Key:        "OPS-101",
		Summary:    "Database connection pool exhausted",
		Status:     "In Progress",
		Priority:   "High",
		IssueType:  "Bug",
		Assignee:   &assignee,
		Labels:     []string{"infra", "database"},
		ProjectKey: "OPS",
		CreatedAt:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func equalsRule(order int, label string, field domain.TicketField, value string) domain.CategoryRule {
	return domain.CategoryRule{
		ID:            label,
		PriorityOrder: order,
		CategoryLabel: label,
		Conditions: []domain.RuleCondition{
			{Field: field, Operator: domain.OpEquals, Value: value},
		},
	}
}

func TestCategorize_FirstMatchWins(t *testing.T) {
	t.Parallel()

	rules := []domain.CategoryRule{
		equalsRule(1, "incidents", domain.FieldIssueType, "Bug"),
		equalsRule(2, "ops-work", domain.FieldProjectKey, "OPS"),
	}

	got := Categorize(sampleTicket(), rules)
	require.NotNil(t, got)
	assert.Equal(t, "incidents", *got)
}

func TestCategorize_OrderDecidedByPriorityNotSlicePosition(t *testing.T) {
	t.Parallel()

	// Both rules match; the lower priority_order wins even though it
	// appears later in the slice.
	rules := []domain.CategoryRule{
		equalsRule(5, "ops-work", domain.FieldProjectKey, "OPS"),
		equalsRule(1, "incidents", domain.FieldIssueType, "Bug"),
	}

	got := Categorize(sampleTicket(), rules)
	require.NotNil(t, got)
	assert.Equal(t, "incidents", *got)
}

func TestCategorize_NoMatchReturnsNil(t *testing.T) {
	t.Parallel()

	rules := []domain.CategoryRule{
		equalsRule(1, "stories", domain.FieldIssueType, "Story"),
	}

	assert.Nil(t, Categorize(sampleTicket(), rules))
	assert.Nil(t, Categorize(sampleTicket(), nil))
}

func TestCategorize_Operators(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		condition domain.RuleCondition
		matched   bool
	}{
		{
			name:      "EqualsIsCaseInsensitive",
			condition: domain.RuleCondition{Field: domain.FieldStatus, Operator: domain.OpEquals, Value: "in progress"},
			matched:   true,
		},
		{
			name:      "ContainsOnSummary",
			condition: domain.RuleCondition{Field: domain.FieldSummary, Operator: domain.OpContains, Value: "CONNECTION"},
			matched:   true,
		},
		{
			name:      "ContainsRejectsEmptyNeedle",
			condition: domain.RuleCondition{Field: domain.FieldSummary, Operator: domain.OpContains, Value: ""},
			matched:   false,
		},
		{
			name:      "OneOfMatchesAnyCandidate",
			condition: domain.RuleCondition{Field: domain.FieldPriority, Operator: domain.OpOneOf, Values: []string{"Highest", "high"}},
			matched:   true,
		},
		{
			name:      "OneOfMissesAllCandidates",
			condition: domain.RuleCondition{Field: domain.FieldPriority, Operator: domain.OpOneOf, Values: []string{"Low", "Lowest"}},
			matched:   false,
		},
		{
			name:      "LabelsMatchAnyElement",
			condition: domain.RuleCondition{Field: domain.FieldLabels, Operator: domain.OpEquals, Value: "database"},
			matched:   true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			rules := []domain.CategoryRule{{
				ID:            "r1",
				PriorityOrder: 1,
				CategoryLabel: "matched",
				Conditions:    []domain.RuleCondition{testCase.condition},
			}}

			got := Categorize(sampleTicket(), rules)
			if testCase.matched {
				require.NotNil(t, got)
				assert.Equal(t, "matched", *got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestCategorize_AbsentFieldNeverMatches(t *testing.T) {
	t.Parallel()

	ticket := sampleTicket()
	ticket.Assignee = nil

	rules := []domain.CategoryRule{{
		ID:            "r1",
		PriorityOrder: 1,
		CategoryLabel: "mine",
		Conditions: []domain.RuleCondition{
			{Field: domain.FieldAssignee, Operator: domain.OpEquals, Value: ""},
		},
	}}

	assert.Nil(t, Categorize(ticket, rules))
}

func TestCategorize_AllConditionsMustHold(t *testing.T) {
	t.Parallel()

	rules := []domain.CategoryRule{{
		ID:            "r1",
		PriorityOrder: 1,
		CategoryLabel: "ops-bugs",
		Conditions: []domain.RuleCondition{
			{Field: domain.FieldIssueType, Operator: domain.OpEquals, Value: "Bug"},
			{Field: domain.FieldProjectKey, Operator: domain.OpEquals, Value: "PLATFORM"},
		},
	}}

	assert.Nil(t, Categorize(sampleTicket(), rules))
}

func TestCategorize_Deterministic(t *testing.T) {
	t.Parallel()

	rules := []domain.CategoryRule{
		equalsRule(1, "incidents", domain.FieldIssueType, "Bug"),
		equalsRule(2, "ops-work", domain.FieldProjectKey, "OPS"),
	}
	ticket := sampleTicket()

	first := Categorize(ticket, rules)
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		again := Categorize(ticket, rules)
		require.NotNil(t, again)
		assert.Equal(t, *first, *again)
	}
}

func TestValidateRules(t *testing.T) {
	t.Parallel()

	valid := equalsRule(1, "incidents", domain.FieldIssueType, "Bug")

	testCases := []struct {
		name    string
		mutate  func(rule *domain.CategoryRule)
		wantErr bool
	}{
		{
			name:    "AcceptsWellFormedRule",
			mutate:  func(rule *domain.CategoryRule) {},
			wantErr: false,
		},
		{
			name:    "RejectsBlankLabel",
			mutate:  func(rule *domain.CategoryRule) { rule.CategoryLabel = "  " },
			wantErr: true,
		},
		{
			name:    "RejectsEmptyConditionList",
			mutate:  func(rule *domain.CategoryRule) { rule.Conditions = nil },
			wantErr: true,
		},
		{
			name:    "RejectsUnknownField",
			mutate:  func(rule *domain.CategoryRule) { rule.Conditions[0].Field = "sprint" },
			wantErr: true,
		},
		{
			name:    "RejectsUnknownOperator",
			mutate:  func(rule *domain.CategoryRule) { rule.Conditions[0].Operator = "regex" },
			wantErr: true,
		},
		{
			name: "RejectsOneOfWithoutValues",
			mutate: func(rule *domain.CategoryRule) {
				rule.Conditions[0].Operator = domain.OpOneOf
				rule.Conditions[0].Values = nil
			},
			wantErr: true,
		},
		{
			name:    "RejectsEmptyEqualsValue",
			mutate:  func(rule *domain.CategoryRule) { rule.Conditions[0].Value = "" },
			wantErr: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			rule := valid
			rule.Conditions = append([]domain.RuleCondition(nil), valid.Conditions...)
			testCase.mutate(&rule)

			err := ValidateRules([]domain.CategoryRule{rule})
			if testCase.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
