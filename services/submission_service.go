package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flag-hunt-system/models"

	"gorm.io/gorm"
)

// DefaultSubmissionCooldown throttles participants between flag attempts.
const DefaultSubmissionCooldown = 3 * time.Second

type SubmissionService struct {
	DB       *gorm.DB
	Cooldown time.Duration
}

func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{DB: db, Cooldown: DefaultSubmissionCooldown}
}

// SubmissionResult reports the outcome of an accepted flag submission.
// SolveOrder and CompletionID are only set when a completion was created.
type SubmissionResult struct {
	SubmissionID  string `json:"submission_id"`
	Correct       bool   `json:"correct"`
	PointsAwarded int    `json:"points_awarded"`
	CompletionID  string `json:"completion_id,omitempty"`
	SolveOrder    int    `json:"solve_order,omitempty"`
	FirstForClass bool   `json:"first_for_class"`
}

// SubmitFlag evaluates one flag attempt inside a single transaction.
//
// An incorrect flag is not an error: the submission is persisted and
// audited, and the result reports Correct=false. Typed errors
// (PrerequisiteNotMetError, ErrAlreadyLocked, ErrDuplicateCompletion, ...)
// roll the whole transaction back so no partial state survives a rejected
// attempt.
func (s *SubmissionService) SubmitFlag(userID, challengeID, flag string, meta RequestMeta) (*SubmissionResult, error) {
	var result *SubmissionResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var user models.User
		if err := lockForUpdate(tx).First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var cfg models.HuntConfig
		if err := tx.First(&cfg).Error; err == nil {
			if !cfg.ActiveAt(now) && !user.IsStaff {
				return ErrHuntInactive
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if !user.IsStaff && user.LastSubmissionAt != nil && now.Sub(*user.LastSubmissionAt) < s.Cooldown {
			return ErrRateLimited
		}
		user.LastSubmissionAt = &now

		// Lock the challenge row: the exclusivity flag and the solve-order
		// counter must not move under us.
		var challenge models.Challenge
		if err := lockForUpdate(tx).Preload("Prerequisites").First(&challenge, "id = ?", challengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return err
		}
		if !challenge.Released && !user.IsStaff {
			return ErrChallengeNotReleased
		}

		if challenge.Mode == models.ModeUnlocking {
			missing, err := missingPrerequisites(tx, user.ClassID, &challenge)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				return &PrerequisiteNotMetError{Missing: missing}
			}
		}

		// Flags compare case-insensitively, ignoring surrounding whitespace.
		correct := strings.EqualFold(strings.TrimSpace(flag), strings.TrimSpace(challenge.Flag))

		submission := models.FlagSubmission{
			UserID:        user.ID,
			ChallengeID:   challenge.ID,
			SubmittedFlag: flag,
			Correct:       correct,
			Valid:         true,
			IPAddress:     meta.IPAddress,
		}

		if !correct {
			if err := tx.Create(&submission).Error; err != nil {
				return err
			}
			if err := tx.Model(&user).Update("last_submission_at", now).Error; err != nil {
				return err
			}
			if err := logFlagSubmission(tx, &submission, &challenge, meta); err != nil {
				return err
			}
			result = &SubmissionResult{SubmissionID: submission.ID, Correct: false}
			return nil
		}

		var dupes int64
		if err := tx.Model(&models.ChallengeCompletion{}).
			Where("user_id = ? AND challenge_id = ? AND valid", user.ID, challenge.ID).
			Count(&dupes).Error; err != nil {
			return err
		}
		if dupes > 0 {
			return ErrDuplicateCompletion
		}

		if challenge.Mode == models.ModeExclusive && challenge.Locked {
			return ErrAlreadyLocked
		}

		var classSolves int64
		if err := tx.Model(&models.ChallengeCompletion{}).
			Where("class_id = ? AND challenge_id = ? AND valid", user.ClassID, challenge.ID).
			Count(&classSolves).Error; err != nil {
			return err
		}
		firstForClass := classSolves == 0

		// Every completion consumes one order index, assigned once and
		// never renumbered.
		order := challenge.SolveCount + 1
		points := 0
		if firstForClass {
			points = PointsForOrder(&challenge, order)
		}

		submission.PointsAwarded = points
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}

		completion := models.ChallengeCompletion{
			UserID:        user.ID,
			ClassID:       user.ClassID,
			ChallengeID:   challenge.ID,
			SubmissionID:  submission.ID,
			PointsEarned:  points,
			SolveOrder:    order,
			FirstForClass: firstForClass,
			Valid:         true,
		}
		if err := tx.Create(&completion).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"solve_count": order}
		if challenge.Mode == models.ModeExclusive {
			updates["locked"] = true
		}
		if err := tx.Model(&challenge).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update challenge state: %w", err)
		}

		user.Points += int64(points)
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"points":             user.Points,
			"last_submission_at": now,
		}).Error; err != nil {
			return err
		}

		if firstForClass {
			var class models.Class
			if err := lockForUpdate(tx).First(&class, "id = ?", user.ClassID).Error; err != nil {
				return fmt.Errorf("failed to lock class row: %w", err)
			}
			if err := tx.Model(&class).Update("points", class.Points+int64(points)).Error; err != nil {
				return err
			}
		}

		if err := logFlagSubmission(tx, &submission, &challenge, meta); err != nil {
			return err
		}
		if err := logChallengeCompletion(tx, &completion, &challenge, meta); err != nil {
			return err
		}

		result = &SubmissionResult{
			SubmissionID:  submission.ID,
			Correct:       true,
			PointsAwarded: points,
			CompletionID:  completion.ID,
			SolveOrder:    order,
			FirstForClass: firstForClass,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// missingPrerequisites returns the prerequisite challenge IDs the class has
// no valid completion for. Prerequisites are satisfied class-wide: any
// member's valid completion counts for the whole class.
func missingPrerequisites(tx *gorm.DB, classID string, ch *models.Challenge) ([]string, error) {
	if len(ch.Prerequisites) == 0 {
		return nil, nil
	}

	required := make([]string, 0, len(ch.Prerequisites))
	for _, p := range ch.Prerequisites {
		required = append(required, p.ID)
	}

	var done []string
	if err := tx.Model(&models.ChallengeCompletion{}).
		Distinct("challenge_id").
		Where("class_id = ? AND challenge_id IN ? AND valid", classID, required).
		Pluck("challenge_id", &done).Error; err != nil {
		return nil, err
	}

	doneSet := make(map[string]bool, len(done))
	for _, id := range done {
		doneSet[id] = true
	}

	var missing []string
	for _, id := range required {
		if !doneSet[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
