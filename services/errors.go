package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotFound             = errors.New("target not found")
	ErrChallengeNotReleased = errors.New("challenge is not released")
	ErrHuntInactive         = errors.New("the hunt is not accepting submissions")
	ErrRateLimited          = errors.New("submitting too fast, slow down")
	ErrAlreadyLocked        = errors.New("challenge has already been claimed")
	ErrDuplicateCompletion  = errors.New("challenge already completed")
	ErrAlreadyInvalidated   = errors.New("target is already invalidated")
	ErrUnauthorized         = errors.New("actor is not privileged")
)

// PrerequisiteNotMetError reports which required challenges the class has
// not completed yet.
type PrerequisiteNotMetError struct {
	Missing []string // challenge IDs
}

func (e *PrerequisiteNotMetError) Error() string {
	return fmt.Sprintf("prerequisites not met: missing %s", strings.Join(e.Missing, ", "))
}
