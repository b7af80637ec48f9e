package backend

import (
	"errors"
	"fmt"

	"gasolina/internal/config"
)

var (
	ErrUnknownBackend  = errors.New("unknown backend type")
	ErrMissingDBPath   = errors.New("sqlite backend needs a database path")
	ErrIncompleteQueue = errors.New("event publishing needs both an exchange and a queue")
)

// supported lists the storage engines in the order they are documented.
var supported = []BackendType{SQLiteBackend, MemoryBackend}

// FromAppConfig picks the storage and event settings out of the app config.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("backend: nil app config")
	}
	c := Config{
		Type:         BackendType(app.DataBackend),
		SQLiteDBPath: app.SQLiteDBPath,
		DataFile:     app.DataFile,
		AMQPURL:      app.AMQPURL,
		AMQPExchange: app.AMQPExchange,
		AMQPQueue:    app.AMQPQueue,
	}
	return c, c.Validate()
}

// Validate rejects combinations the factory cannot open.
func (c Config) Validate() error {
	switch {
	case !c.Type.IsValid():
		return fmt.Errorf("%w %q (supported: %v)", ErrUnknownBackend, c.Type, SupportedTypes())
	case c.Type == SQLiteBackend && c.SQLiteDBPath == "":
		return ErrMissingDBPath
	case c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == ""):
		return ErrIncompleteQueue
	}
	return nil
}

// PublishesEvents reports whether a broker URL was configured.
func (c Config) PublishesEvents() bool { return c.AMQPURL != "" }

// SupportedTypes returns the accepted DATA_BACKEND values.
func SupportedTypes() []string {
	out := make([]string, len(supported))
	for i, t := range supported {
		out[i] = t.String()
	}
	return out
}
