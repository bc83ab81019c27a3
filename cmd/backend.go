package cmd

import (
	"errors"
	"fmt"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/database/mariadb"
	"github.com/facetrace/facetrace/internal/database/postgres"
	"github.com/facetrace/facetrace/internal/web/middleware"
)

// backend bundles the stores from whichever database was configured.
type backend struct {
	References  database.ReferenceStore
	Detections  database.DetectionStore
	Users       database.UserStore
	OTPCodes    database.OTPStore
	SessionRepo middleware.SessionRepository
	Close       func() error
}

// openBackend connects to PostgreSQL when DATABASE_URL is set, else to
// MariaDB via MARIADB_DSN. PostgreSQL is preferred when both are set.
func openBackend(cfg *config.Config) (*backend, error) {
	switch {
	case cfg.Database.URL != "":
		fmt.Println("Connecting to PostgreSQL database...")
		if err := postgres.Initialize(&cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		pool := postgres.GetGlobalPool()
		return &backend{
			References:  postgres.NewReferenceRepository(pool),
			Detections:  postgres.NewDetectionRepository(pool),
			Users:       postgres.NewUserRepository(pool),
			OTPCodes:    postgres.NewOTPRepository(pool),
			SessionRepo: postgres.NewSessionRepository(pool),
			Close:       pool.Close,
		}, nil

	case cfg.Database.MariaDBDSN != "":
		fmt.Println("Connecting to MariaDB database...")
		pool, err := mariadb.Initialize(cfg.Database.MariaDBDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		// Sessions stay in memory on MariaDB installs.
		return &backend{
			References: mariadb.NewReferenceRepository(pool),
			Detections: mariadb.NewDetectionRepository(pool),
			Users:      mariadb.NewUserRepository(pool),
			OTPCodes:   mariadb.NewOTPRepository(pool),
			Close:      pool.Close,
		}, nil

	default:
		return nil, errors.New("DATABASE_URL or MARIADB_DSN environment variable is required")
	}
}
