package postgres

import (
	"context"
	"database/sql"
)

// Client wraps the Postgres connection lifecycle for services.
type Client interface {
	// Connect establishes the connection pool
	Connect(ctx context.Context) error

	// Disconnect closes the connection pool
	Disconnect() error

	// DB returns the underlying connection pool
	DB() *sql.DB

	// IsConnected returns whether the client is connected
	IsConnected() bool
}
