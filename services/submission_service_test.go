package services

import (
	"testing"
	"time"

	"flag-hunt-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitFlag_CorrectAwardsPoints(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	classA := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", classA, false)
	ch := seedChallenge(t, db, models.Challenge{Name: "warmup", Points: 100, Mode: models.ModeFixed, Flag: "flag{warmup}"})

	res, err := svc.SubmitFlag(alice.ID, ch.ID, "flag{warmup}", RequestMeta{IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	assert.True(t, res.Correct)
	assert.Equal(t, 100, res.PointsAwarded)
	assert.Equal(t, 1, res.SolveOrder)
	assert.True(t, res.FirstForClass)
	assert.NotEmpty(t, res.CompletionID)

	assert.EqualValues(t, 100, reloadUser(t, db, alice.ID).Points)
	assert.EqualValues(t, 100, reloadClass(t, db, classA.ID).Points)
	assert.Equal(t, 1, reloadChallenge(t, db, ch.ID).SolveCount)

	var audits int64
	require.NoError(t, db.Model(&models.ActivityLog{}).
		Where("type IN ?", []models.ActivityType{models.ActivityFlagCorrect, models.ActivityChallengeCompleted}).
		Count(&audits).Error)
	assert.EqualValues(t, 2, audits)
}

func TestSubmitFlag_FlagComparisonIsForgiving(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	class := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", class, false)
	ch := seedChallenge(t, db, models.Challenge{Name: "case", Points: 50, Mode: models.ModeFixed, Flag: "Flag{MiXeD}"})

	res, err := svc.SubmitFlag(alice.ID, ch.ID, "  flag{mixed}  ", RequestMeta{})
	require.NoError(t, err)
	assert.True(t, res.Correct)
}

func TestSubmitFlag_IncorrectFlagIsRecordedNotRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	class := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", class, false)
	ch := seedChallenge(t, db, models.Challenge{Name: "warmup", Points: 100, Mode: models.ModeFixed, Flag: "flag{warmup}"})

	res, err := svc.SubmitFlag(alice.ID, ch.ID, "flag{nope}", RequestMeta{})
	require.NoError(t, err)

	assert.False(t, res.Correct)
	assert.Zero(t, res.PointsAwarded)
	assert.Empty(t, res.CompletionID)

	var sub models.FlagSubmission
	require.NoError(t, db.First(&sub, "id = ?", res.SubmissionID).Error)
	assert.False(t, sub.Correct)
	assert.True(t, sub.Valid)

	var completions int64
	require.NoError(t, db.Model(&models.ChallengeCompletion{}).Count(&completions).Error)
	assert.Zero(t, completions)
	assert.Zero(t, reloadUser(t, db, alice.ID).Points)
	assert.Zero(t, reloadChallenge(t, db, ch.ID).SolveCount)
}

func TestSubmitFlag_DuplicateCompletion(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	class := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", class, false)
	ch := seedChallenge(t, db, models.Challenge{Name: "warmup", Points: 100, Mode: models.ModeFixed, Flag: "flag{warmup}"})

	_, err := svc.SubmitFlag(alice.ID, ch.ID, "flag{warmup}", RequestMeta{})
	require.NoError(t, err)

	_, err = svc.SubmitFlag(alice.ID, ch.ID, "flag{warmup}", RequestMeta{})
	assert.ErrorIs(t, err, ErrDuplicateCompletion)

	// no extra points, no order consumed, no extra submission persisted
	assert.EqualValues(t, 100, reloadUser(t, db, alice.ID).Points)
	assert.Equal(t, 1, reloadChallenge(t, db, ch.ID).SolveCount)

	var submissions int64
	require.NoError(t, db.Model(&models.FlagSubmission{}).Count(&submissions).Error)
	assert.EqualValues(t, 1, submissions)
}

func TestSubmitFlag_ClassmateGetsPersonalCreditOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	class := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", class, false)
	carol := seedUser(t, db, "carol", class, false)
	ch := seedChallenge(t, db, models.Challenge{Name: "warmup", Points: 100, Mode: models.ModeFixed, Flag: "flag{warmup}"})

	_, err := svc.SubmitFlag(alice.ID, ch.ID, "flag{warmup}", RequestMeta{})
	require.NoError(t, err)

	res, err := svc.SubmitFlag(carol.ID, ch.ID, "flag{warmup}", RequestMeta{})
	require.NoError(t, err)

	assert.True(t, res.Correct)
	assert.False(t, res.FirstForClass)
	assert.Zero(t, res.PointsAwarded)
	assert.Equal(t, 2, res.SolveOrder)

	// class credit counted once
	assert.EqualValues(t, 100, reloadClass(t, db, class.ID).Points)
	assert.Zero(t, reloadUser(t, db, carol.ID).Points)
}

func TestSubmitFlag_DecreasingDecaysPerOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	ch := seedChallenge(t, db, models.Challenge{Name: "decay", Points: 100, Mode: models.ModeDecreasing, DecayPercent: 20, Flag: "flag{decay}"})

	expected := []int{100, 80, 64}
	for i, year := range []string{"2026", "2027", "2028"} {
		class := seedClass(t, db, year)
		user := seedUser(t, db, "solver-"+year, class, false)

		res, err := svc.SubmitFlag(user.ID, ch.ID, "flag{decay}", RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, i+1, res.SolveOrder)
		assert.Equal(t, expected[i], res.PointsAwarded)
		assert.EqualValues(t, expected[i], reloadClass(t, db, class.ID).Points)
	}
}

func TestSubmitFlag_ExclusiveLocksOnFirstSolve(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	classA := seedClass(t, db, "2026")
	classB := seedClass(t, db, "2027")
	alice := seedUser(t, db, "alice", classA, false)
	bob := seedUser(t, db, "bob", classB, false)
	ch := seedChallenge(t, db, models.Challenge{Name: "heist", Points: 100, Mode: models.ModeExclusive, Flag: "flag{heist}"})

	res, err := svc.SubmitFlag(alice.ID, ch.ID, "flag{heist}", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 100, res.PointsAwarded)
	assert.True(t, reloadChallenge(t, db, ch.ID).Locked)

	_, err = svc.SubmitFlag(bob.ID, ch.ID, "flag{heist}", RequestMeta{})
	assert.ErrorIs(t, err, ErrAlreadyLocked)
	assert.Zero(t, reloadUser(t, db, bob.ID).Points)
	assert.Zero(t, reloadClass(t, db, classB.ID).Points)
}

func TestSubmitFlag_UnlockingRequiresClassPrerequisites(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	class := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", class, false)
	carol := seedUser(t, db, "carol", class, false)

	first := seedChallenge(t, db, models.Challenge{Name: "step-one", Points: 10, Mode: models.ModeFixed, Flag: "flag{one}"})
	second := seedChallenge(t, db, models.Challenge{Name: "step-two", Points: 10, Mode: models.ModeFixed, Flag: "flag{two}"})

	gated := models.Challenge{Name: "finale", Points: 200, Mode: models.ModeUnlocking, Flag: "flag{finale}"}
	gated.Prerequisites = []models.Challenge{*first, *second}
	seedChallenge(t, db, gated)
	var gatedRow models.Challenge
	require.NoError(t, db.First(&gatedRow, "name = ?", "finale").Error)

	_, err := svc.SubmitFlag(alice.ID, first.ID, "flag{one}", RequestMeta{})
	require.NoError(t, err)

	_, err = svc.SubmitFlag(alice.ID, gatedRow.ID, "flag{finale}", RequestMeta{})
	var prereqErr *PrerequisiteNotMetError
	require.ErrorAs(t, err, &prereqErr)
	assert.Equal(t, []string{second.ID}, prereqErr.Missing)

	_, err = svc.SubmitFlag(alice.ID, second.ID, "flag{two}", RequestMeta{})
	require.NoError(t, err)

	// prerequisites are class-wide: carol may submit even though alice did
	// the unlocking solves
	res, err := svc.SubmitFlag(carol.ID, gatedRow.ID, "flag{finale}", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 200, res.PointsAwarded)
}

func TestSubmitFlag_RateLimited(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubmissionService(db)
	svc.Cooldown = time.Hour

	class := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", class, false)
	ch := seedChallenge(t, db, models.Challenge{Name: "warmup", Points: 100, Mode: models.ModeFixed, Flag: "flag{warmup}"})

	_, err := svc.SubmitFlag(alice.ID, ch.ID, "flag{wrong}", RequestMeta{})
	require.NoError(t, err)

	_, err = svc.SubmitFlag(alice.ID, ch.ID, "flag{warmup}", RequestMeta{})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestSubmitFlag_HuntInactive(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	class := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", class, false)
	staff := seedUser(t, db, "root", class, true)
	ch := seedChallenge(t, db, models.Challenge{Name: "warmup", Points: 100, Mode: models.ModeFixed, Flag: "flag{warmup}"})

	require.NoError(t, db.Create(&models.HuntConfig{Enabled: false}).Error)
	// Enabled has a default:true tag, force the column
	require.NoError(t, db.Model(&models.HuntConfig{}).Where("1 = 1").Update("enabled", false).Error)

	_, err := svc.SubmitFlag(alice.ID, ch.ID, "flag{warmup}", RequestMeta{})
	assert.ErrorIs(t, err, ErrHuntInactive)

	// staff may always submit
	_, err = svc.SubmitFlag(staff.ID, ch.ID, "flag{warmup}", RequestMeta{})
	require.NoError(t, err)
}

func TestSubmitFlag_UnreleasedChallenge(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	class := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", class, false)

	ch := models.Challenge{Name: "hidden", Slug: "hidden", Points: 100, Mode: models.ModeFixed, Flag: "flag{hidden}"}
	require.NoError(t, db.Create(&ch).Error)

	_, err := svc.SubmitFlag(alice.ID, ch.ID, "flag{hidden}", RequestMeta{})
	assert.ErrorIs(t, err, ErrChallengeNotReleased)
}

func TestSubmitFlag_UnknownTargets(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	class := seedClass(t, db, "2026")
	alice := seedUser(t, db, "alice", class, false)
	ch := seedChallenge(t, db, models.Challenge{Name: "warmup", Points: 100, Mode: models.ModeFixed, Flag: "flag{warmup}"})

	_, err := svc.SubmitFlag(alice.ID, "00000000-0000-0000-0000-000000000000", "flag{warmup}", RequestMeta{})
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	_, err = svc.SubmitFlag("00000000-0000-0000-0000-000000000000", ch.ID, "flag{warmup}", RequestMeta{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
