package engine

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/replay"
	"github.com/louisbranch/galley/internal/domain/shift"
)

var (
	// ErrCommandRegistryRequired indicates a missing command registry.
	ErrCommandRegistryRequired = errors.New("command registry is required")
	// ErrDeciderRequired indicates a missing decider.
	ErrDeciderRequired = errors.New("decider is required")
	// ErrGateStateLoaderRequired indicates a missing gate state loader.
	ErrGateStateLoaderRequired = errors.New("gate state loader is required")
)

// GateStateLoader loads shift state for gate checks.
type GateStateLoader interface {
	LoadShift(ctx context.Context, kitchenID, shiftID string) (shift.State, error)
}

// StateLoader loads domain state for deciders.
type StateLoader interface {
	Load(ctx context.Context, cmd command.Command) (any, error)
}

// EventJournal appends events to the journal.
type EventJournal interface {
	Append(ctx context.Context, evt event.Event) (event.Event, error)
}

// Folder folds events into state.
type Folder interface {
	Fold(state any, evt event.Event) (any, error)
}

// Decider returns a decision for a command.
type Decider interface {
	Decide(state any, cmd command.Command, now func() time.Time) command.Decision
}

// Handler validates, gates, and decides commands.
type Handler struct {
	Commands        *command.Registry
	Events          *event.Registry
	Journal         EventJournal
	Checkpoints     replay.CheckpointStore
	Snapshots       StateSnapshotStore
	Gate            DecisionGate
	GateStateLoader GateStateLoader
	StateLoader     StateLoader
	Decider         Decider
	Folder          Folder
	Now             func() time.Time
}

// Result captures execution outcomes.
type Result struct {
	Decision command.Decision
	State    any
}

// Handle validates a command, checks gate policy, and returns a decision.
// Emitted events are validated and appended to the journal before the
// decision is returned.
func (h Handler) Handle(ctx context.Context, cmd command.Command) (command.Decision, error) {
	if h.Commands == nil {
		return command.Decision{}, ErrCommandRegistryRequired
	}
	cmd, err := h.Commands.ValidateForDecision(cmd)
	if err != nil {
		return command.Decision{}, err
	}

	declined, err := h.checkGate(ctx, cmd)
	if err != nil {
		return command.Decision{}, err
	}
	if declined != nil {
		return *declined, nil
	}

	if h.Decider == nil {
		return command.Decision{}, ErrDeciderRequired
	}
	var state any
	if h.StateLoader != nil {
		state, err = h.StateLoader.Load(ctx, cmd)
		if err != nil {
			return command.Decision{}, err
		}
	}
	decision := h.Decider.Decide(state, cmd, h.clock())
	decision.Events, err = h.sealEvents(ctx, decision.Events)
	if err != nil {
		return command.Decision{}, err
	}
	return decision, nil
}

// checkGate applies shift gate policy. A non-nil decision means the
// command was declined before reaching the decider.
func (h Handler) checkGate(ctx context.Context, cmd command.Command) (*command.Decision, error) {
	def, ok := h.Commands.Definition(cmd.Type)
	if !ok || def.Gate.Scope != command.GateScopeShift {
		return nil, nil
	}
	if h.GateStateLoader == nil {
		return nil, ErrGateStateLoaderRequired
	}
	shiftState, err := h.GateStateLoader.LoadShift(ctx, cmd.KitchenID, cmd.ShiftID)
	if err != nil {
		return nil, err
	}
	decision := h.Gate.Check(shiftState, cmd)
	if !decision.Rejected() {
		return nil, nil
	}
	return &decision, nil
}

// sealEvents validates emitted events against the registry and appends
// them, returning the stored events with sequence and hashes assigned.
func (h Handler) sealEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if len(events) == 0 {
		return events, nil
	}
	if h.Events != nil {
		vetted := make([]event.Event, 0, len(events))
		for _, evt := range events {
			valid, err := h.Events.ValidateForAppend(evt)
			if err != nil {
				return nil, err
			}
			vetted = append(vetted, valid)
		}
		events = vetted
	}
	if h.Journal == nil {
		return events, nil
	}
	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		appended, err := h.Journal.Append(ctx, evt)
		if err != nil {
			return nil, err
		}
		stored = append(stored, appended)
	}
	return stored, nil
}

func (h Handler) clock() func() time.Time {
	if h.Now != nil {
		return h.Now
	}
	return time.Now
}

// Execute handles a command and settles the resulting state.
//
// With a state loader wired, the settled state is a fresh journal fold
// that observes the appended events exactly once. Without one, the
// emitted events are folded directly. The checkpoint and snapshot are
// then recorded at the last appended sequence.
func (h Handler) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	if h.Commands != nil {
		validated, err := h.Commands.ValidateForDecision(cmd)
		if err != nil {
			return Result{}, err
		}
		cmd = validated
	}

	decision, err := h.Handle(ctx, cmd)
	if err != nil {
		return Result{}, err
	}
	state, err := h.settleState(ctx, cmd, decision.Events)
	if err != nil {
		return Result{}, err
	}
	if err := h.recordProgress(ctx, cmd.KitchenID, decision.Events, state); err != nil {
		return Result{}, err
	}
	return Result{Decision: decision, State: state}, nil
}

func (h Handler) settleState(ctx context.Context, cmd command.Command, events []event.Event) (any, error) {
	if h.StateLoader != nil {
		return h.StateLoader.Load(ctx, cmd)
	}
	if h.Folder == nil {
		return nil, nil
	}
	var state any
	for _, evt := range events {
		next, err := h.Folder.Fold(state, evt)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}

// recordProgress persists the checkpoint and snapshot for the last
// appended event. Kitchens have a single writer, which keeps the
// settled state aligned with that sequence.
func (h Handler) recordProgress(ctx context.Context, kitchenID string, events []event.Event, state any) error {
	if len(events) == 0 {
		return nil
	}
	last := events[len(events)-1]
	if last.Seq == 0 {
		return nil
	}
	if h.Checkpoints != nil {
		marker := replay.Checkpoint{KitchenID: kitchenID, LastSeq: last.Seq, UpdatedAt: time.Now().UTC()}
		if err := h.Checkpoints.Save(ctx, marker); err != nil {
			return err
		}
	}
	if h.Snapshots == nil || state == nil {
		return nil
	}
	return h.Snapshots.SaveState(ctx, kitchenID, last.Seq, state)
}
