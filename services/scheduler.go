// services/scheduler.go
package services

import (
	"log"
	"time"

	"flag-hunt-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// HuntScheduler runs the periodic housekeeping the competition needs:
// releasing timed challenges and closing the hunt once the window ends.
type HuntScheduler struct {
	DB *gorm.DB
}

func NewHuntScheduler(db *gorm.DB) *HuntScheduler {
	return &HuntScheduler{DB: db}
}

func (h *HuntScheduler) Start() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: release timed challenges whose time has come
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(h.releaseDueChallenges),
	)

	// Every minute: close the hunt once the end time passes
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(h.checkHuntEnd),
	)
}

func (h *HuntScheduler) releaseDueChallenges() {
	now := time.Now()

	var due []models.Challenge
	err := h.DB.Where("released = ? AND release_at IS NOT NULL AND release_at <= ?", false, now).
		Find(&due).Error
	if err != nil {
		log.Printf("[Scheduler] DB error finding due challenges: %v", err)
		return
	}

	for _, ch := range due {
		err := h.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&ch).Update("released", true).Error; err != nil {
				return err
			}
			entry := models.ActivityLog{
				Type:        models.ActivityChallengeReleased,
				ChallengeID: ch.ID,
				Details: auditDetails(map[string]interface{}{
					"challenge_name": ch.Name,
					"scheduled_for":  ch.ReleaseAt,
				}),
			}
			return tx.Create(&entry).Error
		})
		if err != nil {
			log.Printf("[Scheduler] Failed to release challenge %s: %v", ch.ID, err)
		} else {
			log.Printf("[Scheduler] Released challenge: %s", ch.Name)
		}
	}
}

func (h *HuntScheduler) checkHuntEnd() {
	var cfg models.HuntConfig
	if err := h.DB.First(&cfg).Error; err != nil {
		return // no config row, hunt runs open-ended
	}
	if !cfg.Enabled || cfg.EndAt == nil || time.Now().Before(*cfg.EndAt) {
		return
	}
	if err := h.DB.Model(&cfg).Update("enabled", false).Error; err != nil {
		log.Printf("[Scheduler] Failed to close hunt: %v", err)
		return
	}
	log.Printf("[Scheduler] Hunt ended at %s, submissions closed", cfg.EndAt.Format(time.RFC3339))
}
