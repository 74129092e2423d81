package services

import (
	"errors"

	"flag-hunt-system/models"

	"gorm.io/gorm"
)

type InvalidationService struct {
	DB *gorm.DB
}

func NewInvalidationService(db *gorm.DB) *InvalidationService {
	return &InvalidationService{DB: db}
}

// InvalidationResult describes a completed reversal.
type InvalidationResult struct {
	SubmissionID  string `json:"submission_id,omitempty"`
	CompletionID  string `json:"completion_id,omitempty"`
	ChallengeID   string `json:"challenge_id,omitempty"`
	ClassID       string `json:"class_id,omitempty"`
	UserID        string `json:"user_id"`
	PointsRemoved int    `json:"points_removed"`
	LockReleased  bool   `json:"lock_released"`
	// CreditTransferredTo is the classmate whose completion now carries the
	// class's credit, when one remained.
	CreditTransferredTo string `json:"credit_transferred_to,omitempty"`
}

// BulkResult aggregates a batch of sequential invalidations. Failed entries
// never roll back prior successes.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

type BulkFailure struct {
	TargetID string `json:"target_id"`
	Reason   string `json:"reason"`
}

// InvalidateSubmission reverses a flag submission. If the submission
// produced a completion, the completion and every aggregate it touched are
// reversed in the same transaction. Invalidating an incorrect submission is
// a no-op on points but still flips its validity flag and is audited.
func (s *InvalidationService) InvalidateSubmission(submissionID, actorID string, meta RequestMeta) (*InvalidationResult, error) {
	if err := s.requireStaff(actorID); err != nil {
		return nil, err
	}

	var result *InvalidationResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var sub models.FlagSubmission
		if err := lockForUpdate(tx).First(&sub, "id = ?", submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !sub.Valid {
			return ErrAlreadyInvalidated
		}

		res := &InvalidationResult{
			SubmissionID: sub.ID,
			ChallengeID:  sub.ChallengeID,
			UserID:       sub.UserID,
		}

		// A completion cannot stay valid once its submission is invalid.
		var comp models.ChallengeCompletion
		err := lockForUpdate(tx).
			Where("submission_id = ? AND valid", sub.ID).
			First(&comp).Error
		switch {
		case err == nil:
			if err := reverseCompletion(tx, &comp, res); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// incorrect or already-reversed submission, nothing to undo
		default:
			return err
		}

		if err := tx.Model(&sub).Updates(map[string]interface{}{
			"valid":          false,
			"points_awarded": 0,
		}).Error; err != nil {
			return err
		}

		if err := logInvalidation(tx, models.ActivityInvalidateSubmission, actorID, res, meta); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// InvalidateCompletion reverses a completion's scoring effects. The paired
// submission keeps its validity but its awarded points are zeroed.
func (s *InvalidationService) InvalidateCompletion(completionID, actorID string, meta RequestMeta) (*InvalidationResult, error) {
	if err := s.requireStaff(actorID); err != nil {
		return nil, err
	}

	var result *InvalidationResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var comp models.ChallengeCompletion
		if err := lockForUpdate(tx).First(&comp, "id = ?", completionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !comp.Valid {
			return ErrAlreadyInvalidated
		}

		res := &InvalidationResult{
			SubmissionID: comp.SubmissionID,
			ChallengeID:  comp.ChallengeID,
			UserID:       comp.UserID,
		}
		if err := reverseCompletion(tx, &comp, res); err != nil {
			return err
		}

		if comp.SubmissionID != "" {
			if err := tx.Model(&models.FlagSubmission{}).
				Where("id = ?", comp.SubmissionID).
				Update("points_awarded", 0).Error; err != nil {
				return err
			}
		}

		if err := logInvalidation(tx, models.ActivityInvalidateCompletion, actorID, res, meta); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BulkInvalidateSubmissions applies InvalidateSubmission to each target in
// order, continuing past individual failures.
func (s *InvalidationService) BulkInvalidateSubmissions(targetIDs []string, actorID string, meta RequestMeta) *BulkResult {
	return s.bulk(targetIDs, func(id string) (*InvalidationResult, error) {
		return s.InvalidateSubmission(id, actorID, meta)
	})
}

// BulkInvalidateCompletions applies InvalidateCompletion to each target in
// order, continuing past individual failures.
func (s *InvalidationService) BulkInvalidateCompletions(targetIDs []string, actorID string, meta RequestMeta) *BulkResult {
	return s.bulk(targetIDs, func(id string) (*InvalidationResult, error) {
		return s.InvalidateCompletion(id, actorID, meta)
	})
}

func (s *InvalidationService) bulk(targetIDs []string, invalidate func(string) (*InvalidationResult, error)) *BulkResult {
	out := &BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, id := range targetIDs {
		if _, err := invalidate(id); err != nil {
			out.Failed = append(out.Failed, BulkFailure{TargetID: id, Reason: err.Error()})
			continue
		}
		out.Succeeded = append(out.Succeeded, id)
	}
	return out
}

func (s *InvalidationService) requireStaff(actorID string) error {
	var actor models.User
	if err := s.DB.First(&actor, "id = ?", actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if !actor.IsStaff {
		return ErrUnauthorized
	}
	return nil
}

// reverseCompletion undoes a completion's effect on the user total, the
// class total and the exclusivity lock. Must run inside the caller's
// transaction; comp must still be marked valid.
//
// The completion row keeps its recorded points and solve order; only the
// validity flag flips. Sibling completions are never renumbered; the sole
// other mutation is the credit handoff to the earliest sibling.
func reverseCompletion(tx *gorm.DB, comp *models.ChallengeCompletion, res *InvalidationResult) error {
	var challenge models.Challenge
	if err := lockForUpdate(tx).First(&challenge, "id = ?", comp.ChallengeID).Error; err != nil {
		return err
	}

	if err := tx.Model(comp).Update("valid", false).Error; err != nil {
		return err
	}

	var user models.User
	if err := lockForUpdate(tx).First(&user, "id = ?", comp.UserID).Error; err != nil {
		return err
	}
	if err := tx.Model(&user).Update("points", user.Points-int64(comp.PointsEarned)).Error; err != nil {
		return err
	}

	// Sibling completions: other class members still holding valid credit
	// for this challenge, earliest first.
	var siblings []models.ChallengeCompletion
	if err := tx.
		Where("class_id = ? AND challenge_id = ? AND valid AND id <> ?", comp.ClassID, comp.ChallengeID, comp.ID).
		Order("solve_order asc").
		Find(&siblings).Error; err != nil {
		return err
	}

	// The class retains credit for a challenge while any member's valid
	// completion remains. Invalidating the credit-carrying completion hands
	// its recorded points to the earliest sibling, which becomes the new
	// carrier; the class total moves only when the last completion goes.
	if comp.FirstForClass {
		if len(siblings) > 0 {
			heir := siblings[0]
			if err := tx.Model(&heir).Updates(map[string]interface{}{
				"points_earned":   comp.PointsEarned,
				"first_for_class": true,
			}).Error; err != nil {
				return err
			}
			var heirUser models.User
			if err := lockForUpdate(tx).First(&heirUser, "id = ?", heir.UserID).Error; err != nil {
				return err
			}
			if err := tx.Model(&heirUser).Update("points", heirUser.Points+int64(comp.PointsEarned)).Error; err != nil {
				return err
			}
			res.CreditTransferredTo = heir.UserID
		} else {
			var class models.Class
			if err := lockForUpdate(tx).First(&class, "id = ?", comp.ClassID).Error; err != nil {
				return err
			}
			if err := tx.Model(&class).Update("points", class.Points-int64(comp.PointsEarned)).Error; err != nil {
				return err
			}
		}
	}

	// Releasing the claim makes an exclusive challenge contestable again;
	// it is never re-locked automatically from another candidate.
	if challenge.Mode == models.ModeExclusive && challenge.Locked {
		var remaining int64
		if err := tx.Model(&models.ChallengeCompletion{}).
			Where("challenge_id = ? AND valid", challenge.ID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Model(&challenge).Update("locked", false).Error; err != nil {
				return err
			}
			res.LockReleased = true
		}
	}

	res.CompletionID = comp.ID
	res.ClassID = comp.ClassID
	res.UserID = comp.UserID
	res.ChallengeID = comp.ChallengeID
	res.PointsRemoved = comp.PointsEarned
	return nil
}
