package services

import (
	"math"

	"flag-hunt-system/models"
)

// PointsForOrder computes the points a completion is worth given the 1-based
// solve order it would receive. Pure: no I/O, deterministic.
//
// fixed, exclusive and unlocking challenges are always worth their base
// points; exclusivity and prerequisite gating are enforced by the
// submission transaction, not here. Decreasing challenges decay by
// DecayPercent per prior solve and never drop below 1 point.
func PointsForOrder(ch *models.Challenge, order int) int {
	if ch.Mode != models.ModeDecreasing {
		return ch.Points
	}
	if order < 1 {
		order = 1
	}
	factor := float64(100-ch.DecayPercent) / 100
	pts := float64(ch.Points) * math.Pow(factor, float64(order-1))
	rounded := int(math.Round(pts))
	if rounded < 1 && ch.Points > 0 {
		return 1
	}
	return rounded
}

// CurrentPoints is the value the next solver would earn, used for listings.
func CurrentPoints(ch *models.Challenge) int {
	return PointsForOrder(ch, ch.SolveCount+1)
}
