package services

import (
	"testing"

	"flag-hunt-system/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test. A single connection
// keeps the :memory: database alive across the pool.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Challenge{},
		&models.Class{},
		&models.User{},
		&models.FlagSubmission{},
		&models.ChallengeCompletion{},
		&models.ActivityLog{},
		&models.Attachment{},
		&models.HuntConfig{},
	))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedClass(t *testing.T, db *gorm.DB, year string) *models.Class {
	t.Helper()
	class := models.Class{Year: year}
	require.NoError(t, db.Create(&class).Error)
	return &class
}

func seedUser(t *testing.T, db *gorm.DB, username string, class *models.Class, staff bool) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Password: "hunter2hunter2",
		ClassID:  class.ID,
		IsStaff:  staff,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedChallenge(t *testing.T, db *gorm.DB, ch models.Challenge) *models.Challenge {
	t.Helper()
	if ch.Slug == "" {
		ch.Slug = ch.Name
	}
	if ch.Flag == "" {
		ch.Flag = "flag{" + ch.Name + "}"
	}
	ch.Released = true
	require.NoError(t, db.Create(&ch).Error)
	return &ch
}

// newSubmissionService returns a service with the cooldown disabled so
// tests can submit back to back.
func newSubmissionService(db *gorm.DB) *SubmissionService {
	svc := NewSubmissionService(db)
	svc.Cooldown = 0
	return svc
}

func reloadClass(t *testing.T, db *gorm.DB, id string) *models.Class {
	t.Helper()
	var class models.Class
	require.NoError(t, db.First(&class, "id = ?", id).Error)
	return &class
}

func reloadUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, "id = ?", id).Error)
	return &user
}

func reloadChallenge(t *testing.T, db *gorm.DB, id string) *models.Challenge {
	t.Helper()
	var ch models.Challenge
	require.NoError(t, db.First(&ch, "id = ?", id).Error)
	return &ch
}
