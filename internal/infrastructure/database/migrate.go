package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/deadletter"
)

// AutoMigrate creates or updates the tables owned by this service.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	log.Info().Msg("running database migrations")

	if err := db.WithContext(ctx).AutoMigrate(&deadletter.Record{}); err != nil {
		return fmt.Errorf("migrate dead letter table: %w", err)
	}

	log.Info().Msg("database migrations complete")
	return nil
}
