package db

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/pysugar/nexus-console/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by store functions when the addressed row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalid matches errors caused by input the store rejected.
var ErrInvalid = errors.New("invalid input")

type validationError struct{ err error }

func (e *validationError) Error() string        { return e.err.Error() }
func (e *validationError) Unwrap() error        { return e.err }
func (e *validationError) Is(target error) bool { return target == ErrInvalid }

func invalid(err error) error {
	return &validationError{err: err}
}

const adminTokenKey = "admin_token"

// InitDB opens the SQLite database and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every console table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Config{},
		&models.UsageLog{},
		&models.Provider{},
		&models.RequestFilter{},
		&models.SessionRequest{},
		&models.ActiveSession{},
	)
}

// EnsureAdminToken returns the stored admin token, generating one on first run.
func EnsureAdminToken(db *gorm.DB) (string, error) {
	var config models.Config
	err := db.Where("key = ?", adminTokenKey).First(&config).Error
	if err == nil {
		return config.Value, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	token := newAdminToken()
	if err := db.Create(&models.Config{Key: adminTokenKey, Value: token}).Error; err != nil {
		return "", err
	}
	log.Printf("[DB] Generated new admin token: %s", token)
	return token, nil
}

// RegenerateAdminToken replaces the stored admin token.
func RegenerateAdminToken(db *gorm.DB) (string, error) {
	token := newAdminToken()
	err := db.Save(&models.Config{Key: adminTokenKey, Value: token}).Error
	if err != nil {
		return "", err
	}
	log.Printf("[DB] Regenerated admin token")
	return token, nil
}

func newAdminToken() string {
	keyBytes := make([]byte, 16)
	rand.Read(keyBytes)
	return "sk-admin-" + hex.EncodeToString(keyBytes)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
