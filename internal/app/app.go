// Package app assembles the kitchen runtime: registries, journal, state
// loading, and the command handler, backed by either the in-memory journal
// or the SQLite store.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/checkpoint"
	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/engine"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/journal"
	"github.com/louisbranch/galley/internal/domain/station/oven"
	"github.com/louisbranch/galley/internal/storage/integrity"
	"github.com/louisbranch/galley/internal/storage/sqlite"
)

// ErrNoIntegrityStore indicates integrity verification was requested on a
// runtime without a persistent store.
var ErrNoIntegrityStore = errors.New("integrity verification requires a storage path")

// Journal is the event surface the runtime exposes to read and write paths.
type Journal interface {
	Append(ctx context.Context, evt event.Event) (event.Event, error)
	ListEvents(ctx context.Context, kitchenID string, afterSeq uint64, limit int) ([]event.Event, error)
	LastSeq(ctx context.Context, kitchenID string) (uint64, error)
}

// Options configures runtime assembly.
type Options struct {
	// StoragePath locates the SQLite journal file. Empty selects the
	// in-memory journal, which loses state on exit.
	StoragePath string
	// Now overrides the handler clock, mainly for tests.
	Now func() time.Time
}

// Runtime bundles the assembled kitchen engine.
type Runtime struct {
	Registries engine.Registries
	Journal    Journal
	Loader     engine.ReplayStateLoader
	Handler    engine.Handler

	store *sqlite.Store
}

// New assembles a runtime for the registered station modules.
func New(opts Options) (*Runtime, error) {
	registries, err := engine.BuildRegistries(oven.New())
	if err != nil {
		return nil, fmt.Errorf("build registries: %w", err)
	}

	runtime := &Runtime{Registries: registries}

	loader := engine.ReplayStateLoader{
		Folder: &aggregate.Folder{Events: registries.Events, StationRegistry: registries.Stations},
		StateFactory: func() any {
			return aggregate.State{}
		},
	}
	handler := engine.Handler{
		Commands: registries.Commands,
		Events:   registries.Events,
		Gate:     engine.DecisionGate{Registry: registries.Commands},
		Decider:  engine.CoreDecider{Stations: registries.Stations},
		Now:      opts.Now,
	}

	if opts.StoragePath == "" {
		memory := journal.NewMemory(registries.Events)
		progress := checkpoint.NewMemory()
		runtime.Journal = memory
		loader.Events = memory
		loader.Snapshots = progress
		handler.Checkpoints = progress
		handler.Snapshots = progress
	} else {
		keyring, err := integrity.KeyringFromEnv()
		if err != nil {
			return nil, fmt.Errorf("load integrity keyring: %w", err)
		}
		store, err := sqlite.Open(opts.StoragePath, keyring, registries.Events,
			sqlite.WithStationRegistry(registries.Stations))
		if err != nil {
			return nil, fmt.Errorf("open journal store: %w", err)
		}
		runtime.store = store
		runtime.Journal = store
		loader.Events = store
		loader.Snapshots = store
		handler.Checkpoints = store
		handler.Snapshots = store
	}

	handler.Journal = runtime.Journal
	handler.StateLoader = loader
	handler.GateStateLoader = engine.ReplayGateStateLoader{StateLoader: loader}

	runtime.Loader = loader
	runtime.Handler = handler
	return runtime, nil
}

// VerifyIntegrity re-derives hashes and signatures for every stored event.
func (r *Runtime) VerifyIntegrity(ctx context.Context) error {
	if r.store == nil {
		return ErrNoIntegrityStore
	}
	return r.store.VerifyEventIntegrity(ctx)
}

// ReplayState folds one kitchen's full journal, ignoring snapshots, so
// drift between stored history and the fold logic surfaces.
func (r *Runtime) ReplayState(ctx context.Context, kitchenID string) (any, error) {
	loader := r.Loader
	loader.Snapshots = nil
	return loader.Load(ctx, command.Command{KitchenID: kitchenID})
}

// KitchenIDs lists every kitchen with journal history.
func (r *Runtime) KitchenIDs(ctx context.Context) ([]string, error) {
	if r.store == nil {
		return nil, ErrNoIntegrityStore
	}
	return r.store.ListKitchenIDs(ctx)
}

// Close releases the backing store, if any.
func (r *Runtime) Close() error {
	if r == nil || r.store == nil {
		return nil
	}
	return r.store.Close()
}
