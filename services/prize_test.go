package services

import (
	"testing"
	"time"

	"goblin-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestDeterminePrize_ChanceZeroNeverGolden(t *testing.T) {
	tpl := &models.BoxTemplate{NormalPrize: 1000, GoldenPrize: 5000, GoldenChance: 0}

	for i := 0; i < 1000; i++ {
		r := float64(i) / 1000
		prizeType, amount := determinePrize(tpl, r)
		assert.Equal(t, models.PrizeTypeNormal, prizeType)
		assert.Equal(t, int64(1000), amount)
	}
}

func TestDeterminePrize_ChanceOneAlwaysGolden(t *testing.T) {
	tpl := &models.BoxTemplate{NormalPrize: 1000, GoldenPrize: 5000, GoldenChance: 1}

	for i := 0; i < 1000; i++ {
		r := float64(i) / 1000 // rand.Float64 is in [0,1)
		prizeType, amount := determinePrize(tpl, r)
		assert.Equal(t, models.PrizeTypeGolden, prizeType)
		assert.Equal(t, int64(5000), amount)
	}
}

func TestDeterminePrize_Boundary(t *testing.T) {
	tpl := &models.BoxTemplate{NormalPrize: 100, GoldenPrize: 500, GoldenChance: 0.25}

	prizeType, _ := determinePrize(tpl, 0.2499)
	assert.Equal(t, models.PrizeTypeGolden, prizeType)

	// golden iff r < chance, so r == chance is normal
	prizeType, _ = determinePrize(tpl, 0.25)
	assert.Equal(t, models.PrizeTypeNormal, prizeType)
}

func TestDeterminePrize_ClampsMisconfiguredChance(t *testing.T) {
	tpl := &models.BoxTemplate{NormalPrize: 100, GoldenPrize: 500, GoldenChance: -0.5}
	prizeType, _ := determinePrize(tpl, 0)
	assert.Equal(t, models.PrizeTypeNormal, prizeType)

	tpl.GoldenChance = 1.5
	prizeType, _ = determinePrize(tpl, 0.999)
	assert.Equal(t, models.PrizeTypeGolden, prizeType)
}

func TestFinalPrizeAmount(t *testing.T) {
	cases := []struct {
		base       int64
		promoValid bool
		expected   int64
	}{
		{1000, false, 1000},
		{1000, true, 3000}, // promo adds 2x base on top
		{1, true, 3},
		{0, true, 0},
		{5000, false, 5000},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, finalPrizeAmount(tc.base, tc.promoValid),
			"base=%d promoValid=%v", tc.base, tc.promoValid)
	}
}

func TestBoxIsReady(t *testing.T) {
	readyAt := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	box := &models.UserBox{ReadyAt: readyAt}

	assert.False(t, boxIsReady(box, readyAt.Add(-time.Millisecond)))
	assert.True(t, boxIsReady(box, readyAt))
	assert.True(t, boxIsReady(box, readyAt.Add(time.Millisecond)))
}

func TestNormalizePromoCode(t *testing.T) {
	assert.Equal(t, "GOBLIN2025", normalizePromoCode("goblin2025"))
	assert.Equal(t, "GOBLIN2025", normalizePromoCode("  Goblin2025  "))
	assert.Equal(t, "", normalizePromoCode("   "))
	// NFKC folds full-width forms before comparison
	assert.Equal(t, "GOBLIN", normalizePromoCode("ｇｏｂｌｉｎ"))
}
