package backend

import (
	"context"
	"slices"

	"gasolina/internal/core"
	"gasolina/internal/services"
)

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and everything wired around it.
type BackendResult struct {
	Store services.EntryStore
	// IDs has already observed every stored id.
	IDs *core.IDSource
	// Publisher is nil when AMQP is disabled or unreachable.
	Publisher services.EventPublisher
	// Pinger is nil for backends without a health check.
	Pinger  Pinger
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific; empty keeps entries in memory only
	DataFile string

	// AMQP; an empty URL disables change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid reports whether bt names a supported engine.
func (bt BackendType) IsValid() bool {
	return slices.Contains(supported, bt)
}
