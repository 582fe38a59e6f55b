package pg

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wallet/config"
	applog "wallet/logger"
)

// CreateDSN builds the connection string. databaseURL wins when set;
// otherwise DATABASE_PASSWORD/USER/HOST are consulted before falling back to
// a local default.
func CreateDSN(databaseURL string) string {
	connStr := "host=localhost user=postgres dbname=postgres port=5432 sslmode=disable TimeZone=UTC"
	if databaseURL != "" {
		connStr = databaseURL
		applog.DB.Info().Msg("Using DATABASE_URL: *")
	} else if os.Getenv("DATABASE_PASSWORD") != "" {
		dbUser := "postgres"
		if os.Getenv("DATABASE_USER") != "" {
			dbUser = os.Getenv("DATABASE_USER")
		}
		host := "127.0.0.1"
		if os.Getenv("DATABASE_HOST") != "" {
			host = os.Getenv("DATABASE_HOST")
		}
		connStr = fmt.Sprintf("host=%s user=%s dbname=postgres password=%s port=5432 sslmode=disable", host, dbUser, os.Getenv("DATABASE_PASSWORD"))
		applog.DB.Info().Msg("Using DATABASE_PASSWORD: *")
	} else {
		applog.DB.Info().Str("dsn", connStr).Msg("Using default connection string")
	}

	// dsn should point to target schema for the app
	switch {
	case !strings.Contains(connStr, "://"):
		connStr += fmt.Sprintf(" search_path=%s", config.AppName)
	case strings.Contains(connStr, "?"):
		connStr += "&search_path=" + config.AppName
	default:
		connStr += "?search_path=" + config.AppName
	}

	return connStr
}

func CloseGORM(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		applog.DB.Error().Err(err).Msg("Error getting underlying sql.DB from GORM")
		return
	}
	if err := sqlDB.Close(); err != nil {
		applog.DB.Error().Err(err).Msg("Error closing database")
	}
}

// InitPostgresGORM initializes a new GORM DB connection to PostgreSQL.
func InitPostgresGORM(dsn string) (*gorm.DB, error) {
	dbLog := applog.DB
	newLogger := logger.New(
		&dbLog,
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Ping the database to ensure connection is alive
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
