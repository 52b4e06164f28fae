package score

import (
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/config"
	"github.com/ghostwatch/ghostwatch/pkg/geo"
	"github.com/ghostwatch/ghostwatch/pkg/model"
)

// Input is everything a scoring pass may consult. Scoring is pure - the same
// input always produces the same result, and nothing here is mutated
type Input struct {
	State          *model.VehicleState
	RouteReference *model.RouteReference

	// ConfirmedRecurring is the tracker's verdict from the previous pass.
	// Recurrence is a trailing signal - this pass's own outcome never feeds
	// back into its own score
	ConfirmedRecurring bool

	Now    time.Time
	Config config.Detection
}

// Each rule reports its result and whether it applies at all. A rule that
// does not apply (off-route with no reference path) is absent from the
// scoring pass rather than present with a zero contribution
type rule struct {
	name     string
	evaluate func(Input) (model.RuleResult, bool)
}

// Definition order is the order results are reported in
var rules = []rule{
	{model.RuleStale, evaluateStale},
	{model.RuleStationary, evaluateStationary},
	{model.RuleOffRoute, evaluateOffRoute},
	{model.RuleSpeedAnomaly, evaluateSpeedAnomaly},
	{model.RuleRecurring, evaluateRecurring},
}

func evaluateStale(input Input) (model.RuleResult, bool) {
	result := model.RuleResult{Rule: model.RuleStale}

	if input.Now.Sub(input.State.LastSeen) > input.Config.StaleThreshold {
		result.Fired = true
		result.Contribution = input.Config.Weights.Stale
	}

	return result, true
}

func evaluateStationary(input Input) (model.RuleResult, bool) {
	result := model.RuleResult{Rule: model.RuleStationary}

	// Only vehicles nominally in service can be stuck - a parked bus with no
	// trip assignment is not evidence of anything
	if input.State.TripIdentifier == "" {
		return result, true
	}

	history := input.State.History
	if len(history) < 2 {
		return result, true
	}

	oldest := history[0]
	newest := history[len(history)-1]

	// Guard against terminus & layover false positives by requiring the
	// trailing history to span the full threshold before firing
	if newest.Timestamp.Sub(oldest.Timestamp) < input.Config.StationaryThreshold {
		return result, true
	}

	for i := 1; i < len(history); i++ {
		if oldest.Location.Distance(&history[i].Location) > input.Config.StationaryRadiusKm {
			return result, true
		}
	}

	result.Fired = true
	result.Contribution = input.Config.Weights.Stationary

	return result, true
}

func evaluateOffRoute(input Input) (model.RuleResult, bool) {
	// No reference geometry means the rule does not apply at all - a missing
	// route must never count as evidence of ghosting
	if input.RouteReference == nil || len(input.RouteReference.Path) < 2 {
		return model.RuleResult{}, false
	}

	result := model.RuleResult{Rule: model.RuleOffRoute}

	distance := input.State.Position.Location.DistanceFromPath(input.RouteReference.Path)
	if distance > input.Config.OffRouteThresholdKm {
		result.Fired = true
		result.Contribution = input.Config.Weights.OffRoute
	}

	return result, true
}

func evaluateSpeedAnomaly(input Input) (model.RuleResult, bool) {
	result := model.RuleResult{Rule: model.RuleSpeedAnomaly}

	position := input.State.Position
	if position.HasSpeed && (position.Speed < 0 || position.Speed > input.Config.MaxSpeedMS) {
		result.Fired = true
		result.Contribution = input.Config.Weights.SpeedAnomaly

		return result, true
	}

	history := input.State.History
	if len(history) >= 2 {
		a := history[len(history)-2]
		b := history[len(history)-1]

		// SpeedBetween returns -1 for a zero or negative elapsed time, which
		// disqualifies the derived check rather than firing it
		derived := geo.SpeedBetween(a.Location, b.Location, a.Timestamp, b.Timestamp)
		if derived > input.Config.MaxSpeedMS {
			result.Fired = true
			result.Contribution = input.Config.Weights.SpeedAnomaly
		}
	}

	return result, true
}

func evaluateRecurring(input Input) (model.RuleResult, bool) {
	result := model.RuleResult{Rule: model.RuleRecurring}

	if input.ConfirmedRecurring {
		result.Fired = true
		result.Contribution = input.Config.Weights.Recurring
	}

	return result, true
}
