package services

import (
	"encoding/json"

	"flag-hunt-system/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestMeta carries caller context worth auditing. Zero value is fine for
// internal actions (scheduler, tests).
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

func auditDetails(kv map[string]interface{}) datatypes.JSON {
	b, err := json.Marshal(kv)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func logFlagSubmission(tx *gorm.DB, sub *models.FlagSubmission, ch *models.Challenge, meta RequestMeta) error {
	typ := models.ActivityFlagIncorrect
	if sub.Correct {
		typ = models.ActivityFlagCorrect
	}
	entry := models.ActivityLog{
		ActorID:      sub.UserID,
		Type:         typ,
		ChallengeID:  ch.ID,
		SubmissionID: sub.ID,
		PointsDelta:  sub.PointsAwarded,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Details: auditDetails(map[string]interface{}{
			"challenge_name":        ch.Name,
			"submitted_flag_length": len(sub.SubmittedFlag),
		}),
	}
	return tx.Create(&entry).Error
}

func logChallengeCompletion(tx *gorm.DB, comp *models.ChallengeCompletion, ch *models.Challenge, meta RequestMeta) error {
	entry := models.ActivityLog{
		ActorID:      comp.UserID,
		Type:         models.ActivityChallengeCompleted,
		ChallengeID:  ch.ID,
		SubmissionID: comp.SubmissionID,
		CompletionID: comp.ID,
		ClassID:      comp.ClassID,
		PointsDelta:  comp.PointsEarned,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Details: auditDetails(map[string]interface{}{
			"challenge_name":  ch.Name,
			"solve_order":     comp.SolveOrder,
			"first_for_class": comp.FirstForClass,
		}),
	}
	return tx.Create(&entry).Error
}

func logInvalidation(tx *gorm.DB, typ models.ActivityType, actorID string, res *InvalidationResult, meta RequestMeta) error {
	details := map[string]interface{}{
		"invalidated_user": res.UserID,
		"points_removed":   res.PointsRemoved,
	}
	if res.CreditTransferredTo != "" {
		details["credit_transferred_to"] = res.CreditTransferredTo
	}
	entry := models.ActivityLog{
		ActorID:      actorID,
		Type:         typ,
		ChallengeID:  res.ChallengeID,
		SubmissionID: res.SubmissionID,
		CompletionID: res.CompletionID,
		ClassID:      res.ClassID,
		PointsDelta:  -res.PointsRemoved,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Details:      auditDetails(details),
	}
	return tx.Create(&entry).Error
}
