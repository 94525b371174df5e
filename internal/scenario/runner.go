package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/cooking"
	"github.com/louisbranch/galley/internal/domain/engine"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/recipe"
	"github.com/louisbranch/galley/internal/domain/shift"
	"github.com/louisbranch/galley/internal/domain/station"
	"github.com/louisbranch/galley/internal/domain/station/oven"
)

var (
	// ErrScenarioRequired indicates Run was called without a scenario.
	ErrScenarioRequired = errors.New("scenario is required")
	// ErrStateLoaderRequired indicates the runner has no way to read state.
	ErrStateLoaderRequired = errors.New("state loader is required")
)

// Runner executes scenario steps against the command engine.
type Runner struct {
	Handler   engine.Handler
	Loader    engine.StateLoader
	KitchenID string
	ActorID   string
	Now       func() time.Time
}

// Report summarizes a scenario run. A run with failures is not an error:
// engine-level errors abort the run, failed expectations accumulate here.
type Report struct {
	Scenario string
	Steps    int
	Failures []string
}

// Failed reports whether any expectation did not hold.
func (r Report) Failed() bool {
	return len(r.Failures) > 0
}

// Run dispatches every step in order and checks expectations against the
// state the engine loads after each command.
func (r Runner) Run(ctx context.Context, scenario *Scenario) (Report, error) {
	if scenario == nil {
		return Report{}, ErrScenarioRequired
	}
	if r.Loader == nil {
		return Report{}, ErrStateLoaderRequired
	}
	if r.ActorID == "" {
		r.ActorID = "scenario"
	}

	report := Report{Scenario: scenario.Name, Steps: len(scenario.Steps)}
	var lastDecision command.Decision
	shiftID := ""

	for i, step := range scenario.Steps {
		switch step.Kind {
		case "expect_rejected":
			code := argString(step.Args, "code")
			if !hasRejection(lastDecision, code) {
				report.Failures = append(report.Failures,
					fmt.Sprintf("step %d (%s): expected rejection %s, got %s", i+1, step.Kind, code, describeDecision(lastDecision)))
			}
			continue
		case "expect_stock", "expect_cooked", "expect_oven":
			state, err := r.loadState(ctx)
			if err != nil {
				return report, fmt.Errorf("step %d (%s): load state: %w", i+1, step.Kind, err)
			}
			if failure := checkExpectation(step, state); failure != "" {
				report.Failures = append(report.Failures, fmt.Sprintf("step %d (%s): %s", i+1, step.Kind, failure))
			}
			continue
		}

		cmd, err := r.buildCommand(step, shiftID)
		if err != nil {
			return report, fmt.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}

		result, err := r.Handler.Execute(ctx, cmd)
		if err != nil {
			return report, fmt.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
		lastDecision = result.Decision

		if step.Kind == "open_shift" && !result.Decision.Rejected() {
			shiftID = argString(step.Args, "shift_id")
		}
		if step.Kind == "close_shift" && !result.Decision.Rejected() {
			shiftID = ""
		}

		// A rejected command only fails the run when the script does not
		// expect the rejection on the next step.
		if result.Decision.Rejected() && !nextStepExpectsRejection(scenario.Steps, i) {
			report.Failures = append(report.Failures,
				fmt.Sprintf("step %d (%s): unexpected %s", i+1, step.Kind, describeDecision(result.Decision)))
		}
	}

	return report, nil
}

func (r Runner) loadState(ctx context.Context) (aggregate.State, error) {
	loaded, err := r.Loader.Load(ctx, command.Command{KitchenID: r.KitchenID})
	if err != nil {
		return aggregate.State{}, err
	}
	return aggregate.AssertState[aggregate.State](loaded)
}

func (r Runner) buildCommand(step Step, shiftID string) (command.Command, error) {
	cmd := command.Command{
		KitchenID: r.KitchenID,
		ActorID:   r.ActorID,
		ShiftID:   shiftID,
	}

	var payload any
	switch step.Kind {
	case "open_shift":
		cmd.Type = shift.CommandTypeOpen
		cmd.ActorType = string(event.ActorTypeManager)
		payload = shift.OpenPayload{
			ShiftID: argString(step.Args, "shift_id"),
			Name:    argString(step.Args, "name"),
		}
	case "close_shift":
		cmd.Type = shift.CommandTypeClose
		cmd.ActorType = string(event.ActorTypeManager)
		payload = shift.ClosePayload{ShiftID: shiftID}
	case "add_ingredient":
		cmd.Type = ingredient.CommandTypeAdd
		cmd.ActorType = string(event.ActorTypeCook)
		payload = ingredient.AddPayload{
			Name:     argString(step.Args, "name"),
			Quantity: argInt(step.Args, "quantity"),
			Unit:     argString(step.Args, "unit"),
		}
	case "consume_ingredient":
		cmd.Type = ingredient.CommandTypeConsume
		cmd.ActorType = string(event.ActorTypeCook)
		payload = ingredient.ConsumePayload{
			Name:     argString(step.Args, "name"),
			Quantity: argInt(step.Args, "quantity"),
			Reason:   argString(step.Args, "reason"),
		}
	case "add_recipe":
		cmd.Type = recipe.CommandTypeAdd
		cmd.ActorType = string(event.ActorTypeCook)
		payload = recipe.AddPayload{
			Name:            argString(step.Args, "name"),
			CookTimeMinutes: argInt(step.Args, "cook_time_minutes"),
			Items:           argItems(step.Args, "items"),
		}
	case "remove_recipe":
		cmd.Type = recipe.CommandTypeRemove
		cmd.ActorType = string(event.ActorTypeCook)
		payload = recipe.RemovePayload{Name: argString(step.Args, "name")}
	case "cook":
		cmd.Type = cooking.CommandTypeCook
		cmd.ActorType = string(event.ActorTypeCook)
		payload = cooking.CookPayload{Recipe: argString(step.Args, "recipe")}
	case "preheat_oven":
		cmd.Type = oven.CommandTypePreheat
		cmd.ActorType = string(event.ActorTypeCook)
		cmd.StationID = oven.ModuleID
		cmd.StationVersion = oven.ModuleVersion
		payload = oven.PreheatPayload{TemperatureC: argInt(step.Args, "temperature_c")}
	case "oven_off":
		cmd.Type = oven.CommandTypeOff
		cmd.ActorType = string(event.ActorTypeCook)
		cmd.StationID = oven.ModuleID
		cmd.StationVersion = oven.ModuleVersion
		payload = oven.OffPayload{}
	default:
		return command.Command{}, fmt.Errorf("unknown step kind %q", step.Kind)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return command.Command{}, fmt.Errorf("encode payload: %w", err)
	}
	cmd.PayloadJSON = encoded
	return cmd, nil
}

func checkExpectation(step Step, state aggregate.State) string {
	switch step.Kind {
	case "expect_stock":
		name := argString(step.Args, "name")
		want := argInt(step.Args, "quantity")
		got := state.Ingredients[ingredient.Key(name)].Quantity
		if got != want {
			return fmt.Sprintf("stock %s = %d, want %d", name, got, want)
		}
	case "expect_cooked":
		want := argInt(step.Args, "count")
		if state.Cooking.Cooked != want {
			return fmt.Sprintf("cooked = %d, want %d", state.Cooking.Cooked, want)
		}
	case "expect_oven":
		raw, ok := state.Stations[station.Key{ID: oven.ModuleID, Version: oven.ModuleVersion}]
		if !ok {
			return "oven has no recorded state"
		}
		ovenState, ok := raw.(oven.State)
		if !ok {
			return fmt.Sprintf("oven state is %T", raw)
		}
		if lit, present := step.Args["lit"].(bool); present && ovenState.Lit != lit {
			return fmt.Sprintf("oven lit = %t, want %t", ovenState.Lit, lit)
		}
		if want, present := step.Args["temperature_c"]; present {
			if ovenState.TemperatureC != toInt(want) {
				return fmt.Sprintf("oven temperature = %d, want %d", ovenState.TemperatureC, toInt(want))
			}
		}
	}
	return ""
}

func nextStepExpectsRejection(steps []Step, index int) bool {
	if index+1 >= len(steps) {
		return false
	}
	return steps[index+1].Kind == "expect_rejected"
}

func hasRejection(decision command.Decision, code string) bool {
	for _, rejection := range decision.Rejections {
		if rejection.Code == code {
			return true
		}
	}
	return false
}

func describeDecision(decision command.Decision) string {
	if !decision.Rejected() {
		return fmt.Sprintf("acceptance with %d events", len(decision.Events))
	}
	codes := make([]string, 0, len(decision.Rejections))
	for _, rejection := range decision.Rejections {
		codes = append(codes, rejection.Code)
	}
	return fmt.Sprintf("rejection %v", codes)
}

func argString(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return value
}

func argInt(args map[string]any, key string) int {
	return toInt(args[key])
}

func toInt(value any) int {
	switch typed := value.(type) {
	case int:
		return typed
	case float64:
		return int(typed)
	default:
		return 0
	}
}

func argItems(args map[string]any, key string) []recipe.Item {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	items := make([]recipe.Item, 0, len(raw))
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, recipe.Item{
			Ingredient: argString(fields, "ingredient"),
			Quantity:   argInt(fields, "quantity"),
		})
	}
	return items
}
