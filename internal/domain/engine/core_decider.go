package engine

import (
	"fmt"
	"time"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/cooking"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/recipe"
	"github.com/louisbranch/galley/internal/domain/shift"
	"github.com/louisbranch/galley/internal/domain/station"
)

const (
	rejectionCodeStateInvalid       = "DECIDER_STATE_INVALID"
	rejectionCodeStationRouteFailed = "STATION_ROUTE_FAILED"
	rejectionCodeCommandUnsupported = "COMMAND_UNSUPPORTED"
)

// CoreDecider routes commands to the slice decider that owns them. Station
// commands are routed through the station registry with their current
// sub-state.
type CoreDecider struct {
	Stations *station.Registry
}

// Decide implements Decider over aggregate state.
func (d CoreDecider) Decide(state any, cmd command.Command, now func() time.Time) command.Decision {
	current, err := aggregate.AssertState[aggregate.State](state)
	if err != nil {
		return command.RejectWith(rejectionCodeStateInvalid, err.Error())
	}

	switch cmd.Type {
	case ingredient.CommandTypeAdd, ingredient.CommandTypeConsume:
		return ingredient.Decide(current.Ingredients, cmd, now)
	case recipe.CommandTypeAdd, recipe.CommandTypeRemove:
		return recipe.Decide(current.Recipes, cmd, now)
	case shift.CommandTypeOpen, shift.CommandTypeClose:
		return shift.Decide(current.Shift, cmd, now)
	case cooking.CommandTypeCook:
		return cooking.Decide(current.Recipes, current.Ingredients, cmd, now)
	}

	if cmd.StationID != "" || cmd.StationVersion != "" {
		return d.decideStation(current, cmd, now)
	}

	return command.RejectWith(rejectionCodeCommandUnsupported, fmt.Sprintf("no decider handles %s", cmd.Type))
}

// decideStation resolves the station's current sub-state, seeding it from
// the module's state factory on first use, then routes the command.
func (d CoreDecider) decideStation(current aggregate.State, cmd command.Command, now func() time.Time) command.Decision {
	key := station.Key{ID: cmd.StationID, Version: cmd.StationVersion}
	stationState := current.Stations[key]
	if mod := d.Stations.Get(cmd.StationID, cmd.StationVersion); mod != nil && stationState == nil {
		if factory := mod.StateFactory(); factory != nil {
			seed, err := factory.NewState(cmd.KitchenID)
			if err != nil {
				return command.RejectWith(rejectionCodeStationRouteFailed, err.Error())
			}
			stationState = seed
		}
	}
	decision, err := station.RouteCommand(d.Stations, stationState, cmd, now)
	if err != nil {
		return command.RejectWith(rejectionCodeStationRouteFailed, err.Error())
	}
	return decision
}
