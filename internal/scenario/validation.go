package scenario

import (
	"fmt"
	"time"

	"scenarist/internal/api"
)

// Validate performs the structural checks that must fail at registration
// time. It also normalizes defaults: zero statuses become 200 and omitted
// sequence repeat modes become "last".
func Validate(def *Definition) error {
	if def.ID == "" {
		return api.NewValidationError("", "id", "scenario id is required")
	}
	for i := range def.Mocks {
		if err := validateRule(def.ID, i, &def.Mocks[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateRule(scenarioID string, index int, rule *MockRule) error {
	loc := func(field string) string {
		if field == "" {
			return fmt.Sprintf("mocks[%d]", index)
		}
		return fmt.Sprintf("mocks[%d].%s", index, field)
	}

	if rule.Method == "" {
		return api.NewValidationError(scenarioID, loc("method"), "method is required")
	}
	if rule.URL == "" {
		return api.NewValidationError(scenarioID, loc("url"), "url pattern is required")
	}

	switch rule.OutcomeKind() {
	case OutcomeStatic:
		normalizeResponse(rule.Response)
		if err := validateDelay(rule.Response); err != nil {
			return api.NewValidationError(scenarioID, loc("response.delay"), err.Error())
		}
	case OutcomeSequence:
		if len(rule.Sequence.Responses) == 0 {
			return api.NewValidationError(scenarioID, loc("sequence.responses"), "sequence needs at least one response")
		}
		switch rule.Sequence.Repeat {
		case "":
			rule.Sequence.Repeat = RepeatLast
		case RepeatLast, RepeatCycle, RepeatNone:
		default:
			return api.NewValidationError(scenarioID, loc("sequence.repeat"),
				fmt.Sprintf("unknown repeat mode %q", rule.Sequence.Repeat))
		}
		for j := range rule.Sequence.Responses {
			normalizeResponse(&rule.Sequence.Responses[j])
			if err := validateDelay(&rule.Sequence.Responses[j]); err != nil {
				return api.NewValidationError(scenarioID, loc(fmt.Sprintf("sequence.responses[%d].delay", j)), err.Error())
			}
		}
	case OutcomeStateConditional:
		normalizeResponse(&rule.StateResponse.Default)
		for j := range rule.StateResponse.Conditions {
			cond := &rule.StateResponse.Conditions[j]
			if len(cond.When) == 0 {
				return api.NewValidationError(scenarioID, loc(fmt.Sprintf("stateResponse.conditions[%d].when", j)),
					"condition needs at least one state key")
			}
			normalizeResponse(&cond.Then)
			if cond.AfterResponse != nil && len(cond.AfterResponse.SetState) == 0 {
				return api.NewValidationError(scenarioID, loc(fmt.Sprintf("stateResponse.conditions[%d].afterResponse.setState", j)),
					"setState must not be empty")
			}
		}
	default:
		return api.NewValidationError(scenarioID, loc(""),
			"exactly one of response, sequence, stateResponse is required")
	}

	if rule.Match != nil && rule.Match.FieldCount() == 0 {
		return api.NewValidationError(scenarioID, loc("match"), "match criteria must not be empty")
	}

	if _, err := ParseCaptures(rule.CaptureState); err != nil {
		return api.NewValidationError(scenarioID, loc("captureState"), err.Error())
	}

	if rule.AfterResponse != nil && len(rule.AfterResponse.SetState) == 0 {
		return api.NewValidationError(scenarioID, loc("afterResponse.setState"), "setState must not be empty")
	}

	return nil
}

func normalizeResponse(resp *StaticResponse) {
	if resp != nil && resp.Status == 0 {
		resp.Status = 200
	}
}

func validateDelay(resp *StaticResponse) error {
	if resp == nil || resp.Delay == "" {
		return nil
	}
	if _, err := time.ParseDuration(resp.Delay); err != nil {
		return fmt.Errorf("invalid delay %q", resp.Delay)
	}
	return nil
}
