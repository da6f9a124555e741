// Package ioadapter names the peripheral column producer/consumer
// contract wire-format parsers sit behind: per §1's Non-goals, CSV/JSON
// parsing itself is out of scope here and "treated as an interface
// that yields typed columns." It follows the Initialize(ctx,
// config)/Close(ctx) lifecycle shape of
// ajitpratap0-nebula/pkg/connector/core's Source/Destination
// interfaces, trimmed down to the column-level surface this spec
// actually names — no schema discovery, positions, CDC subscriptions
// or batch streams, since those have no referent in a columnar
// in-memory engine.
package ioadapter

import (
	"context"

	"github.com/joyshmitz/frankenpandas/pkg/column"
)

// ColumnSource produces named, typed columns from some external format
// or transport. Concrete implementations (CSV, JSON, Arrow IPC, ...)
// live outside this module.
type ColumnSource interface {
	// Initialize prepares the source (opening a file, connecting to a
	// transport) before the first Next call.
	Initialize(ctx context.Context) error

	// Next returns the next named column, or ok=false once the source
	// is exhausted.
	Next(ctx context.Context) (name string, col *column.Column, ok bool, err error)

	// Close releases any resource Initialize acquired.
	Close(ctx context.Context) error
}

// ColumnSink consumes named, typed columns, writing them to some
// external format or transport.
type ColumnSink interface {
	// Initialize prepares the sink before the first Write call.
	Initialize(ctx context.Context) error

	// Write emits one named column.
	Write(ctx context.Context, name string, col *column.Column) error

	// Close flushes and releases any resource Initialize acquired.
	Close(ctx context.Context) error
}
