package categorize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

// Categorize evaluates the ordered rule sequence against one ticket and
// returns the label of the first rule whose every condition matches, or
// nil when no rule matches. Evaluation is a pure function of its
// inputs: the same ticket and rules always yield the same label.
func Categorize(ticket *domain.Ticket, rules []domain.CategoryRule) *string {
	ordered := make([]domain.CategoryRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PriorityOrder < ordered[j].PriorityOrder
	})

	for i := range ordered {
		if matches(ticket, ordered[i].Conditions) {
			label := ordered[i].CategoryLabel
			return &label
		}
	}
	return nil
}

// matches requires every condition of the predicate to hold. An empty
// condition list never matches; a rule with no conditions would
// otherwise shadow every rule behind it.
func matches(ticket *domain.Ticket, conditions []domain.RuleCondition) bool {
	if len(conditions) == 0 {
		return false
	}
	for i := range conditions {
		if !evalCondition(ticket, &conditions[i]) {
			return false
		}
	}
	return true
}

func evalCondition(ticket *domain.Ticket, condition *domain.RuleCondition) bool {
	value, present := ticket.FieldValue(condition.Field)
	if !present {
		// An absent field never matches, by contract.
		return false
	}

	switch fieldValue := value.(type) {
	case string:
		return evalString(fieldValue, condition)
	case []string:
		for _, element := range fieldValue {
			if evalString(element, condition) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func evalString(value string, condition *domain.RuleCondition) bool {
	lowered := strings.ToLower(value)
	switch condition.Operator {
	case domain.OpEquals:
		return lowered == strings.ToLower(condition.Value)
	case domain.OpContains:
		needle := strings.ToLower(condition.Value)
		return needle != "" && strings.Contains(lowered, needle)
	case domain.OpOneOf:
		for _, candidate := range condition.Values {
			if lowered == strings.ToLower(candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ValidateRules rejects rules referencing unknown fields or operators
// so evaluation stays total once a rule set is accepted.
func ValidateRules(rules []domain.CategoryRule) error {
	for i := range rules {
		rule := &rules[i]
		if strings.TrimSpace(rule.CategoryLabel) == "" {
			return errorutil.NewValidationError("rule category label required",
				map[string]any{"rule": rule.ID})
		}
		if len(rule.Conditions) == 0 {
			return errorutil.NewValidationError("rule needs at least one condition",
				map[string]any{"rule": rule.ID})
		}
		for j := range rule.Conditions {
			condition := &rule.Conditions[j]
			if !domain.ValidFields[condition.Field] {
				return errorutil.NewValidationError(
					fmt.Sprintf("unknown rule field %q", condition.Field),
					map[string]any{"rule": rule.ID})
			}
			if !domain.ValidOperators[condition.Operator] {
				return errorutil.NewValidationError(
					fmt.Sprintf("unknown rule operator %q", condition.Operator),
					map[string]any{"rule": rule.ID})
			}
			if condition.Operator == domain.OpOneOf && len(condition.Values) == 0 {
				return errorutil.NewValidationError("one_of condition needs values",
					map[string]any{"rule": rule.ID})
			}
			if condition.Operator != domain.OpOneOf && condition.Value == "" {
				return errorutil.NewValidationError("condition value required",
					map[string]any{"rule": rule.ID})
			}
		}
	}
	return nil
}
