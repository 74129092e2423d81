package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"flag-hunt-system/models"
	"flag-hunt-system/utils"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ChallengeService covers staff-side challenge management.
type ChallengeService struct {
	DB *gorm.DB
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{DB: db}
}

// CreateChallengeInput captures everything staff can set on a new
// challenge. Mode-specific fields are validated against the mode.
type CreateChallengeInput struct {
	Name             string             `json:"name"`
	ShortDescription string             `json:"short_description"`
	Flag             string             `json:"flag"`
	Points           int                `json:"points"`
	Mode             models.ScoringMode `json:"mode"`
	DecayPercent     int                `json:"decay_percent"`
	PrerequisiteIDs  []string           `json:"prerequisite_ids"`
	CategoryID       string             `json:"category_id"`
	ReleaseAt        *time.Time         `json:"release_at"`
	Released         bool               `json:"released"`
}

func (in *CreateChallengeInput) validate() error {
	if in.Name == "" || in.Flag == "" {
		return errors.New("name and flag are required")
	}
	if in.Points < 0 {
		return errors.New("points must be non-negative")
	}
	switch in.Mode {
	case models.ModeFixed, models.ModeExclusive:
	case "":
		in.Mode = models.ModeFixed
	case models.ModeDecreasing:
		if in.DecayPercent < 0 || in.DecayPercent >= 100 {
			return errors.New("decay_percent must be in [0,100) for decreasing mode")
		}
	case models.ModeUnlocking:
		if len(in.PrerequisiteIDs) == 0 {
			return errors.New("unlocking mode requires at least one prerequisite")
		}
	default:
		return fmt.Errorf("unknown scoring mode %q", in.Mode)
	}
	// Decay and prerequisites are meaningful only for their modes.
	if in.Mode != models.ModeDecreasing {
		in.DecayPercent = 0
	}
	if in.Mode != models.ModeUnlocking {
		in.PrerequisiteIDs = nil
	}
	return nil
}

func (s *ChallengeService) CreateChallenge(in CreateChallengeInput) (*models.Challenge, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	challenge := models.Challenge{
		Name:             in.Name,
		Slug:             slug.Make(in.Name),
		ShortDescription: in.ShortDescription,
		Flag:             in.Flag,
		Points:           in.Points,
		Mode:             in.Mode,
		DecayPercent:     in.DecayPercent,
		Released:         in.Released,
		ReleaseAt:        in.ReleaseAt,
	}
	if in.CategoryID != "" {
		challenge.CategoryID = &in.CategoryID
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if len(in.PrerequisiteIDs) > 0 {
			var prereqs []models.Challenge
			if err := tx.Where("id IN ?", in.PrerequisiteIDs).Find(&prereqs).Error; err != nil {
				return err
			}
			if len(prereqs) != len(in.PrerequisiteIDs) {
				return ErrChallengeNotFound
			}
			challenge.Prerequisites = prereqs
		}
		return tx.Create(&challenge).Error
	})
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// ReleaseChallenge makes a challenge visible immediately.
func (s *ChallengeService) ReleaseChallenge(challengeID string) error {
	res := s.DB.Model(&models.Challenge{}).
		Where("id = ?", challengeID).
		Updates(map[string]interface{}{"released": true, "release_at": nil})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrChallengeNotFound
	}
	return nil
}

// AttachFile uploads an attachment to R2 under the challenge's slug and
// records it.
func (s *ChallengeService) AttachFile(challengeID string, file *multipart.FileHeader) (*models.Attachment, error) {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	url, err := utils.UploadAttachment(file, challenge.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}

	attachment := models.Attachment{
		ChallengeID: challenge.ID,
		FileName:    file.Filename,
		FileSize:    file.Size,
		URL:         url,
	}
	if err := s.DB.Create(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListChallenges is the staff view: all challenges regardless of release
// state, with optional mode filter.
func (s *ChallengeService) ListChallenges(mode string) ([]models.Challenge, error) {
	db := s.DB.Preload("Category").Preload("Prerequisites").Preload("Attachments")
	if mode != "" {
		db = db.Where("mode = ?", mode)
	}
	var challenges []models.Challenge
	if err := db.Order("created_at asc").Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}
