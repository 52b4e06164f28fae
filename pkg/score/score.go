// Package score turns a vehicle's current & historical state into a ghost
// score between 0 and 100 with a breakdown of which heuristics fired. It
// holds no state of its own and is safe to call concurrently for different
// vehicles.
package score

import "github.com/ghostwatch/ghostwatch/pkg/model"

// Evaluate runs every applicable rule against the input, summing the
// contributions of the rules that fired and clamping the total to [0, 100]
func Evaluate(input Input) (int, []model.RuleResult) {
	total := 0
	var results []model.RuleResult

	for _, rule := range rules {
		result, applies := rule.evaluate(input)
		if !applies {
			continue
		}

		if result.Fired {
			total += result.Contribution
		}

		results = append(results, result)
	}

	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	return total, results
}

// Classify maps a score onto a classification. Recurring-ghost requires both
// an over-threshold score and a satisfied recurrence condition
func Classify(ghostScore int, recurring bool, threshold int) model.Classification {
	if ghostScore <= threshold {
		return model.ClassificationNormal
	}

	if recurring {
		return model.ClassificationRecurringGhost
	}

	return model.ClassificationGhost
}
