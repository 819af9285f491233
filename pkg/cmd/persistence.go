package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence/memory"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence/postgresql"
)

// NewPersistence selects a persistence backend from the database URL scheme.
// postgres:// and postgresql:// use PostgreSQL; memory:// keeps everything
// in process for local development.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	case "memory":
		return memory.NewPersistence()
	default:
		panic("Unsupported persistence provider in database URL: " + databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ""
	}

	return provider
}
