// File: internal/repository/db.go
package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/glebarez/sqlite"
	"google.golang.org/api/option"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iyunix/go-sage/internal/domain"
)

// OpenSQLite opens (or creates) the SQLite database at dsn and migrates the
// schema. dsn may be a file path or a "file:...?mode=memory" URI.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite serializes writers anyway; one connection keeps in-memory
	// databases and background writers from tripping over table locks.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.User{}, &domain.Chat{}, &domain.Message{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

// OpenFirestore connects to Firestore. An empty credentialsFile falls back to
// application default credentials (or the emulator when
// FIRESTORE_EMULATOR_HOST is set).
func OpenFirestore(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("open firestore project %q: %w", projectID, err)
	}
	return client, nil
}
