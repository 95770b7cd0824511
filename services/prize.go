package services

import (
	"strings"
	"time"

	"goblin-backend/models"

	"golang.org/x/text/unicode/norm"
)

// MiningDuration is the maturation window between starting a box and being
// allowed to complete the mission / claim.
const MiningDuration = 24 * time.Hour

// determinePrize draws the tier for a new box: golden iff r < GoldenChance.
// r is expected in [0,1). Chances outside [0,1] come from template
// misconfiguration and are clamped.
func determinePrize(tpl *models.BoxTemplate, r float64) (models.PrizeType, int64) {
	chance := tpl.GoldenChance
	if chance < 0 {
		chance = 0
	} else if chance > 1 {
		chance = 1
	}

	if r < chance {
		return models.PrizeTypeGolden, tpl.GoldenPrize
	}
	return models.PrizeTypeNormal, tpl.NormalPrize
}

// boxIsReady reports whether the maturation window has passed.
// Readiness is derived from the stored timestamp, never from a timer.
func boxIsReady(box *models.UserBox, now time.Time) bool {
	return !now.Before(box.ReadyAt)
}

// finalPrizeAmount applies the partner promo bonus: a valid promo adds
// twice the base on top of it (3x total). Without a promo the base stands.
func finalPrizeAmount(base int64, promoValid bool) int64 {
	if promoValid {
		return base + base*2
	}
	return base
}

// normalizePromoCode folds a user-supplied code into canonical form for
// comparison: NFKC, trimmed, uppercased.
func normalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(code)))
}
