package service

import (
	"context"
	"database/sql"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/database"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// VersionInfo describes the running build and its database schema.
type VersionInfo struct {
	AppVersion    string `json:"appVersion"`
	SchemaVersion int64  `json:"schemaVersion"`
	LatestSchema  int64  `json:"latestSchema"`
	Pending       bool   `json:"pendingMigrations"`
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return database.HealthCheck(ctx, s.db)
}

// CheckVersion reports the application version and the schema version.
func (s *SystemService) CheckVersion(ctx context.Context) (VersionInfo, error) {
	current, latest, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return VersionInfo{AppVersion: version.Version}, err
	}
	return VersionInfo{
		AppVersion:    version.Version,
		SchemaVersion: current,
		LatestSchema:  latest,
		Pending:       current < latest,
	}, nil
}
