// Package app assembles the application: configuration, database pool,
// Genkit provider, capability adapters and the assistant service.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okanon/oracle/internal/config"
	"github.com/okanon/oracle/internal/history"
	"github.com/okanon/oracle/internal/rag"
	"github.com/okanon/oracle/internal/vecstore"
)

// App holds the wired application. Close releases resources in reverse
// construction order.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	DBPool    *pgxpool.Pool
	VecStore  *vecstore.Store
	History   *history.Store
	Assistant *rag.Service

	dbCleanup   func()
	otelCleanup func()
}

// Close shuts the application down. Safe to call after a partial Setup.
func (a *App) Close() {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
		a.otelCleanup = nil
	}
}
