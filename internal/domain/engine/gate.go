package engine

import (
	"fmt"
	"strings"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/shift"
)

const rejectionCodeShiftNotOpen = "SHIFT_NOT_OPEN"

// DecisionGate enforces shift gate policy before command decisions run.
type DecisionGate struct {
	Registry *command.Registry
}

// Check returns a rejection when a shift-scoped command arrives while no
// shift is open.
//
// Gate evaluation is intentionally centralized so each domain package can
// expose a simple command shape while policy enforcement remains consistent.
func (g DecisionGate) Check(state shift.State, cmd command.Command) command.Decision {
	if g.Registry == nil {
		return command.Decision{}
	}
	def, ok := g.Registry.Definition(cmd.Type)
	if !ok {
		return command.Decision{}
	}
	if def.Gate.Scope != command.GateScopeShift {
		return command.Decision{}
	}
	if def.Gate.AllowWhenClosed {
		return command.Decision{}
	}
	if state.Opened && !state.Closed {
		return command.Decision{}
	}
	message := "no shift is open"
	if shiftID := strings.TrimSpace(state.ShiftID); shiftID != "" && state.Closed {
		message = fmt.Sprintf("shift %s is closed", shiftID)
	}
	return command.RejectWith(rejectionCodeShiftNotOpen, message)
}
