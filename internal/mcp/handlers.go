package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/cooking"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/recipe"
	"github.com/louisbranch/galley/internal/domain/shift"
	"github.com/louisbranch/galley/internal/storage/cursor"
)

const defaultEventListLimit = 50

// IngredientAddHandler dispatches ingredient.add commands.
func IngredientAddHandler(service *Service) mcp.ToolHandlerFor[IngredientAddInput, DispatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input IngredientAddInput) (*mcp.CallToolResult, DispatchResult, error) {
		return service.dispatch(ctx, input.KitchenID, ingredient.CommandTypeAdd, string(event.ActorTypeCook), ingredient.AddPayload{
			Name:     input.Name,
			Quantity: input.Quantity,
			Unit:     input.Unit,
		})
	}
}

// IngredientConsumeHandler dispatches ingredient.consume commands.
func IngredientConsumeHandler(service *Service) mcp.ToolHandlerFor[IngredientConsumeInput, DispatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input IngredientConsumeInput) (*mcp.CallToolResult, DispatchResult, error) {
		return service.dispatch(ctx, input.KitchenID, ingredient.CommandTypeConsume, string(event.ActorTypeCook), ingredient.ConsumePayload{
			Name:     input.Name,
			Quantity: input.Quantity,
			Reason:   input.Reason,
		})
	}
}

// RecipeAddHandler dispatches recipe.add commands.
func RecipeAddHandler(service *Service) mcp.ToolHandlerFor[RecipeAddInput, DispatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecipeAddInput) (*mcp.CallToolResult, DispatchResult, error) {
		items := make([]recipe.Item, 0, len(input.Items))
		for _, item := range input.Items {
			items = append(items, recipe.Item{Ingredient: item.Ingredient, Quantity: item.Quantity})
		}
		return service.dispatch(ctx, input.KitchenID, recipe.CommandTypeAdd, string(event.ActorTypeCook), recipe.AddPayload{
			Name:            input.Name,
			CookTimeMinutes: input.CookTimeMinutes,
			Items:           items,
		})
	}
}

// RecipeRemoveHandler dispatches recipe.remove commands.
func RecipeRemoveHandler(service *Service) mcp.ToolHandlerFor[RecipeRemoveInput, DispatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecipeRemoveInput) (*mcp.CallToolResult, DispatchResult, error) {
		return service.dispatch(ctx, input.KitchenID, recipe.CommandTypeRemove, string(event.ActorTypeCook), recipe.RemovePayload{
			Name: input.Name,
		})
	}
}

// ShiftOpenHandler dispatches shift.open commands.
func ShiftOpenHandler(service *Service) mcp.ToolHandlerFor[ShiftOpenInput, DispatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ShiftOpenInput) (*mcp.CallToolResult, DispatchResult, error) {
		return service.dispatch(ctx, input.KitchenID, shift.CommandTypeOpen, string(event.ActorTypeManager), shift.OpenPayload{
			ShiftID: input.ShiftID,
			Name:    input.Name,
		})
	}
}

// ShiftCloseHandler dispatches shift.close commands.
func ShiftCloseHandler(service *Service) mcp.ToolHandlerFor[ShiftCloseInput, DispatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ShiftCloseInput) (*mcp.CallToolResult, DispatchResult, error) {
		return service.dispatch(ctx, input.KitchenID, shift.CommandTypeClose, string(event.ActorTypeManager), shift.ClosePayload{
			ShiftID: input.ShiftID,
		})
	}
}

// CookHandler dispatches cooking.cook commands.
func CookHandler(service *Service) mcp.ToolHandlerFor[CookInput, DispatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CookInput) (*mcp.CallToolResult, DispatchResult, error) {
		return service.dispatch(ctx, input.KitchenID, cooking.CommandTypeCook, string(event.ActorTypeCook), cooking.CookPayload{
			Recipe: input.Recipe,
		})
	}
}

// StateGetHandler reads the current aggregate state.
func StateGetHandler(service *Service) mcp.ToolHandlerFor[StateGetInput, StateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StateGetInput) (*mcp.CallToolResult, StateResult, error) {
		kitchenID := service.kitchen(input.KitchenID)

		loaded, err := service.Loader.Load(ctx, command.Command{KitchenID: kitchenID})
		if err != nil {
			return nil, StateResult{}, fmt.Errorf("load state: %w", err)
		}
		state, err := aggregate.AssertState[aggregate.State](loaded)
		if err != nil {
			return nil, StateResult{}, fmt.Errorf("load state: %w", err)
		}

		result := StateResult{
			KitchenID:  kitchenID,
			Cooked:     state.Cooking.Cooked,
			LastRecipe: state.Cooking.LastRecipe,
			Shift: ShiftStatus{
				Open:    state.Shift.Opened && !state.Shift.Closed,
				ShiftID: state.Shift.ShiftID,
				Name:    state.Shift.Name,
			},
		}

		for _, entry := range state.Ingredients {
			result.Ingredients = append(result.Ingredients, IngredientEntry{
				Name:     entry.Name,
				Quantity: entry.Quantity,
				Unit:     entry.Unit,
			})
		}
		sort.Slice(result.Ingredients, func(i, j int) bool {
			return result.Ingredients[i].Name < result.Ingredients[j].Name
		})

		for _, entry := range state.Recipes {
			items := make([]RecipeItemSpec, 0, len(entry.Items))
			for _, item := range entry.Items {
				items = append(items, RecipeItemSpec{Ingredient: item.Ingredient, Quantity: item.Quantity})
			}
			result.Recipes = append(result.Recipes, RecipeEntry{
				Name:            entry.Name,
				CookTimeMinutes: entry.CookTimeMinutes,
				Items:           items,
				Removed:         entry.Removed,
			})
		}
		sort.Slice(result.Recipes, func(i, j int) bool {
			return result.Recipes[i].Name < result.Recipes[j].Name
		})

		for key, stationState := range state.Stations {
			encoded, err := json.Marshal(stationState)
			if err != nil {
				return nil, StateResult{}, fmt.Errorf("encode station state %s@%s: %w", key.ID, key.Version, err)
			}
			result.Stations = append(result.Stations, StationStatus{
				ID:      key.ID,
				Version: key.Version,
				State:   string(encoded),
			})
		}
		sort.Slice(result.Stations, func(i, j int) bool {
			if result.Stations[i].ID != result.Stations[j].ID {
				return result.Stations[i].ID < result.Stations[j].ID
			}
			return result.Stations[i].Version < result.Stations[j].Version
		})

		return nil, result, nil
	}
}

// EventListHandler pages the kitchen journal.
func EventListHandler(service *Service) mcp.ToolHandlerFor[EventListInput, EventListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventListInput) (*mcp.CallToolResult, EventListResult, error) {
		kitchenID := service.kitchen(input.KitchenID)
		limit := input.Limit
		if limit <= 0 {
			limit = defaultEventListLimit
		}

		afterSeq := input.AfterSeq
		if input.Cursor != "" {
			decoded, err := cursor.Decode(input.Cursor)
			if err != nil {
				return nil, EventListResult{}, fmt.Errorf("decode cursor: %w", err)
			}
			if err := cursor.Validate(decoded, kitchenID); err != nil {
				return nil, EventListResult{}, err
			}
			afterSeq = decoded.Seq
		}

		events, err := service.Events.ListEvents(ctx, kitchenID, afterSeq, limit)
		if err != nil {
			return nil, EventListResult{}, fmt.Errorf("list events: %w", err)
		}

		result := EventListResult{KitchenID: kitchenID}
		for _, evt := range events {
			result.Events = append(result.Events, EventEntry{
				Seq:       evt.Seq,
				Type:      string(evt.Type),
				Timestamp: evt.Timestamp.UTC().Format(time.RFC3339),
				ActorType: string(evt.ActorType),
				ActorID:   evt.ActorID,
				EntityID:  evt.EntityID,
				Payload:   string(evt.PayloadJSON),
			})
			result.LastSeq = evt.Seq
		}
		if len(result.Events) == limit {
			token, err := cursor.Encode(cursor.New(result.LastSeq, kitchenID))
			if err != nil {
				return nil, EventListResult{}, fmt.Errorf("encode cursor: %w", err)
			}
			result.NextCursor = token
		}
		return nil, result, nil
	}
}

func (s *Service) dispatch(ctx context.Context, kitchenID string, cmdType command.Type, actorType string, payload any) (*mcp.CallToolResult, DispatchResult, error) {
	ctx, span := otel.Tracer("galley/mcp").Start(ctx, "mcp.dispatch",
		trace.WithAttributes(
			attribute.String("command.type", string(cmdType)),
			attribute.String("kitchen.id", s.kitchen(kitchenID)),
		))
	defer span.End()

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, DispatchResult{}, fmt.Errorf("encode payload: %w", err)
	}

	cmd := command.Command{
		KitchenID:   s.kitchen(kitchenID),
		Type:        cmdType,
		ActorType:   actorType,
		ActorID:     s.ActorID,
		PayloadJSON: encoded,
	}
	result, err := s.Handler.Execute(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		return nil, DispatchResult{}, err
	}

	dispatch := DispatchResult{Accepted: !result.Decision.Rejected()}
	for _, evt := range result.Decision.Events {
		dispatch.Events = append(dispatch.Events, EventRef{Seq: evt.Seq, Type: string(evt.Type)})
	}
	for _, rejection := range result.Decision.Rejections {
		dispatch.Rejections = append(dispatch.Rejections, RejectionEntry{Code: rejection.Code, Message: rejection.Message})
	}
	return nil, dispatch, nil
}

func (s *Service) kitchen(kitchenID string) string {
	if trimmed := strings.TrimSpace(kitchenID); trimmed != "" {
		return trimmed
	}
	return s.KitchenID
}
