// Package replay rebuilds kitchen state from the journal.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/galley/internal/domain/event"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrFolderRequired indicates a missing folder.
	ErrFolderRequired = errors.New("folder is required")
	// ErrKitchenIDRequired indicates a missing kitchen id.
	ErrKitchenIDRequired = errors.New("kitchen id is required")
	// ErrCheckpointNotFound indicates no checkpoint or snapshot exists yet.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

// EventStore lists events for replay.
type EventStore interface {
	ListEvents(ctx context.Context, kitchenID string, afterSeq uint64, limit int) ([]event.Event, error)
}

// CheckpointStore records handled progress per kitchen.
//
// Checkpoints are written by the command path after a successful append.
// Replay never consults them: the fold resumes from the snapshot it was
// seeded with, so a marker that ran ahead cannot move the start point.
type CheckpointStore interface {
	Get(ctx context.Context, kitchenID string) (Checkpoint, error)
	Save(ctx context.Context, checkpoint Checkpoint) error
}

// Folder folds a journal event into state.
type Folder interface {
	Fold(state any, evt event.Event) (any, error)
}

// Checkpoint marks the last journal sequence a kitchen has handled.
type Checkpoint struct {
	KitchenID string
	LastSeq   uint64
	UpdatedAt time.Time
}

// Options configures replay behavior.
type Options struct {
	AfterSeq uint64
	UntilSeq uint64
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	State   any
	LastSeq uint64
	Applied int
}

// Replay folds a kitchen's events in sequence order onto state.
//
// The fold starts immediately after options.AfterSeq and reads nothing
// but the event store, so two replays over the same journal always
// produce the same state. A sequence gap stops the fold with an error
// so a truncated journal never folds into state that looks complete.
func Replay(ctx context.Context, store EventStore, folder Folder, kitchenID string, state any, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	if folder == nil {
		return Result{}, ErrFolderRequired
	}
	kitchenID = strings.TrimSpace(kitchenID)
	if kitchenID == "" {
		return Result{}, ErrKitchenIDRequired
	}

	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result{State: state, LastSeq: options.AfterSeq}
	for {
		page, err := store.ListEvents(ctx, kitchenID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(page) == 0 {
			return result, nil
		}
		done, err := foldPage(folder, &result, page, options.UntilSeq)
		if err != nil || done {
			return result, err
		}
	}
}

func foldPage(folder Folder, result *Result, page []event.Event, untilSeq uint64) (bool, error) {
	for _, evt := range page {
		if untilSeq > 0 && evt.Seq > untilSeq {
			return true, nil
		}
		if want := result.LastSeq + 1; evt.Seq != want {
			return false, fmt.Errorf("event sequence gap: expected %d got %d", want, evt.Seq)
		}
		next, err := folder.Fold(result.State, evt)
		if err != nil {
			return false, err
		}
		result.State = next
		result.LastSeq = evt.Seq
		result.Applied++
	}
	return false, nil
}
