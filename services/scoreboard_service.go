package services

import (
	"errors"
	"sort"
	"time"

	"flag-hunt-system/models"

	"gorm.io/gorm"
)

// ScoreboardService serves derived, read-only projections for dashboards.
// Nothing here writes: totals and sets are maintained by the submission and
// invalidation transactions.
type ScoreboardService struct {
	DB *gorm.DB
}

func NewScoreboardService(db *gorm.DB) *ScoreboardService {
	return &ScoreboardService{DB: db}
}

type ClassStanding struct {
	ClassID    string     `json:"class_id"`
	Year       string     `json:"year"`
	Points     int64      `json:"points"`
	Solves     int64      `json:"solves"`
	LastSolve  *time.Time `json:"last_solve,omitempty"`
	Rank       int        `json:"rank"`
}

type UserStanding struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	ClassID  string `json:"class_id"`
	Points   int64  `json:"points"`
	Rank     int    `json:"rank"`
}

// ClassStandings ranks classes by points, earlier last solve breaking ties.
func (s *ScoreboardService) ClassStandings() ([]ClassStanding, error) {
	var classes []models.Class
	if err := s.DB.Order("points desc, year asc").Find(&classes).Error; err != nil {
		return nil, err
	}

	standings := make([]ClassStanding, 0, len(classes))
	for _, class := range classes {
		entry := ClassStanding{ClassID: class.ID, Year: class.Year, Points: class.Points}

		var agg struct {
			Solves    int64
			LastSolve *time.Time
		}
		if err := s.DB.Model(&models.ChallengeCompletion{}).
			Select("COUNT(DISTINCT challenge_id) as solves, MAX(created_at) as last_solve").
			Where("class_id = ? AND valid", class.ID).
			Scan(&agg).Error; err != nil {
			return nil, err
		}
		entry.Solves = agg.Solves
		entry.LastSolve = agg.LastSolve
		standings = append(standings, entry)
	}

	// Ties on points go to the class that reached them first. Classes with
	// no solves at all sort behind tied classes that have some.
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		switch {
		case a.LastSolve == nil && b.LastSolve == nil:
			return a.Year < b.Year
		case a.LastSolve == nil:
			return false
		case b.LastSolve == nil:
			return true
		case !a.LastSolve.Equal(*b.LastSolve):
			return a.LastSolve.Before(*b.LastSolve)
		}
		return a.Year < b.Year
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, nil
}

// UserStandings ranks individual participants by personal points.
func (s *ScoreboardService) UserStandings(limit int) ([]UserStanding, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var users []models.User
	if err := s.DB.Order("points desc, username asc").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}

	standings := make([]UserStanding, 0, len(users))
	for i, u := range users {
		standings = append(standings, UserStanding{
			UserID:   u.ID,
			Username: u.Username,
			ClassID:  u.ClassID,
			Points:   u.Points,
			Rank:     i + 1,
		})
	}
	return standings, nil
}

// ChallengeSolves lists the valid completions of one challenge in solve
// order.
func (s *ScoreboardService) ChallengeSolves(challengeID string) ([]models.ChallengeCompletion, error) {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	var solves []models.ChallengeCompletion
	if err := s.DB.
		Preload("User").Preload("Class").
		Where("challenge_id = ? AND valid", challengeID).
		Order("solve_order asc").
		Find(&solves).Error; err != nil {
		return nil, err
	}
	return solves, nil
}

// LockState reports whether an exclusive challenge is currently claimed.
func (s *ScoreboardService) LockState(challengeID string) (bool, error) {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrChallengeNotFound
		}
		return false, err
	}
	return challenge.Locked, nil
}

// ChallengeStatus is the participant-facing state of one challenge.
type ChallengeStatus string

const (
	StatusAvailable ChallengeStatus = "available"
	StatusCompleted ChallengeStatus = "completed"
	StatusLocked    ChallengeStatus = "locked"
)

type ChallengeBoardEntry struct {
	Challenge     models.Challenge `json:"challenge"`
	Status        ChallengeStatus  `json:"status"`
	CurrentPoints int              `json:"current_points"`
}

// ChallengeBoard lists released challenges with the given class's view of
// each: completed by the class, locked away by another class, or available
// at the shown point value.
func (s *ScoreboardService) ChallengeBoard(classID string) ([]ChallengeBoardEntry, error) {
	var challenges []models.Challenge
	if err := s.DB.
		Preload("Category").Preload("Attachments").
		Where("released").
		Order("created_at asc").
		Find(&challenges).Error; err != nil {
		return nil, err
	}

	var done []string
	if err := s.DB.Model(&models.ChallengeCompletion{}).
		Distinct("challenge_id").
		Where("class_id = ? AND valid", classID).
		Pluck("challenge_id", &done).Error; err != nil {
		return nil, err
	}
	doneSet := make(map[string]bool, len(done))
	for _, id := range done {
		doneSet[id] = true
	}

	board := make([]ChallengeBoardEntry, 0, len(challenges))
	for _, ch := range challenges {
		entry := ChallengeBoardEntry{Challenge: ch, CurrentPoints: CurrentPoints(&ch)}
		switch {
		case doneSet[ch.ID]:
			entry.Status = StatusCompleted
		case ch.Locked:
			entry.Status = StatusLocked
		default:
			entry.Status = StatusAvailable
		}
		board = append(board, entry)
	}
	return board, nil
}

// UserStats summarizes one participant's activity.
type UserStats struct {
	TotalSubmissions   int64   `json:"total_submissions"`
	CorrectSubmissions int64   `json:"correct_submissions"`
	Completions        int64   `json:"completions"`
	Points             int64   `json:"points"`
	SuccessRate        float64 `json:"success_rate"`
}

func (s *ScoreboardService) UserStats(userID string) (*UserStats, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	stats := &UserStats{Points: user.Points}
	if err := s.DB.Model(&models.FlagSubmission{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalSubmissions).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.FlagSubmission{}).
		Where("user_id = ? AND correct", userID).
		Count(&stats.CorrectSubmissions).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.ChallengeCompletion{}).
		Where("user_id = ? AND valid", userID).
		Count(&stats.Completions).Error; err != nil {
		return nil, err
	}
	if stats.TotalSubmissions > 0 {
		stats.SuccessRate = float64(stats.CorrectSubmissions) / float64(stats.TotalSubmissions) * 100
	}
	return stats, nil
}
