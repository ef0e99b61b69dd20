package rating_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rating_engine/internal/domain/entity"
	"rating_engine/internal/domain/service/rating"
)

func TestCalculateExperienceMod(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name             string
		payroll          float64
		lossHistory      []entity.LossRecord
		expectedLossRate float64
		splitPointTable  []entity.SplitPointEntry
		wantMod          float64
		wantSplitPoint   float64
	}{
		{
			name:             "clean history clamps to the floor",
			payroll:          100000,
			lossHistory:      nil,
			expectedLossRate: 1,
			wantMod:          0.75,
			wantSplitPoint:   5000,
		},
		{
			name:    "catastrophic history clamps to the ceiling",
			payroll: 100000,
			lossHistory: []entity.LossRecord{
				{Year: 2023, IncurredLoss: 30000, ClaimCount: 1},
			},
			expectedLossRate: 1,
			wantMod:          2.0,
			wantSplitPoint:   5000,
		},
		{
			name:    "moderate history stays between the bounds",
			payroll: 100000,
			lossHistory: []entity.LossRecord{
				{Year: 2022, IncurredLoss: 250, ClaimCount: 1},
				{Year: 2023, IncurredLoss: 150, ClaimCount: 1},
			},
			expectedLossRate: 1,
			// (400 + 0*0.3 + 770) / (700 + 770) rounds to 0.8.
			wantMod:        0.8,
			wantSplitPoint: 5000,
		},
		{
			name:    "split point resolved from the table",
			payroll: 100000,
			lossHistory: []entity.LossRecord{
				{Year: 2023, IncurredLoss: 400, ClaimCount: 1},
			},
			expectedLossRate: 1,
			splitPointTable: []entity.SplitPointEntry{
				{ExpectedLosses: 500, SplitPoint: 2500},
				{ExpectedLosses: 2000, SplitPoint: 8000},
			},
			wantMod:        0.8,
			wantSplitPoint: 8000,
		},
		{
			name:    "expected losses beyond the table use the last entry",
			payroll: 1000000,
			lossHistory: []entity.LossRecord{
				{Year: 2023, IncurredLoss: 100, ClaimCount: 1},
			},
			expectedLossRate: 1,
			splitPointTable: []entity.SplitPointEntry{
				{ExpectedLosses: 500, SplitPoint: 2500},
				{ExpectedLosses: 2000, SplitPoint: 8000},
			},
			wantMod:        0.75,
			wantSplitPoint: 8000,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			result := rating.CalculateExperienceMod(
				tc.payroll, tc.lossHistory, tc.expectedLossRate, tc.splitPointTable)

			rq.InDelta(tc.wantMod, result.ExperienceMod, 1e-9)
			rq.InDelta(tc.wantSplitPoint, result.SplitPoint, 1e-9)
		})
	}
}

func TestCalculateExperienceModIntermediates(t *testing.T) {
	rq := require.New(t)

	result := rating.CalculateExperienceMod(100000, []entity.LossRecord{
		{Year: 2023, IncurredLoss: 6000, ClaimCount: 2},
	}, 1, nil)

	rq.InDelta(1000, result.ExpectedLosses, 1e-9)
	rq.InDelta(70, result.Ballast, 1e-9)
	// Losses above the split point count as primary only up to it.
	rq.InDelta(5000, result.ActualPrimary, 1e-9)
}

func TestCalculateExperienceModOnlyIncurredLossesCount(t *testing.T) {
	rq := require.New(t)

	withPaid := rating.CalculateExperienceMod(100000, []entity.LossRecord{
		{Year: 2023, PaidLoss: 99999, IncurredLoss: 250, ClaimCount: 1},
	}, 1, nil)

	withoutPaid := rating.CalculateExperienceMod(100000, []entity.LossRecord{
		{Year: 2023, IncurredLoss: 250, ClaimCount: 1},
	}, 1, nil)

	rq.InDelta(withoutPaid.ExperienceMod, withPaid.ExperienceMod, 1e-9)
}
