package rating

import (
	"fmt"
	"sort"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/pkg/errcodes"
)

// CalculateILF converts a basic-limit premium into the premium at the
// selected limit using table interpolation. The table is sorted ascending by
// limit; an exact limit hit uses that entry's factor (first match wins),
// otherwise the factor is linearly interpolated between the nearest
// neighbours, with flat extrapolation beyond the table bounds.
//
// A zero factor at the basic limit makes the ratio undefined and is rejected.
func CalculateILF(basicLimit, selectedLimit float64, table []entity.ILFTableEntry, basePremium float64) (entity.ILFResult, error) {
	sorted := make([]entity.ILFTableEntry, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Limit < sorted[j].Limit
	})

	basicFactor := factorAt(sorted, basicLimit)
	if basicFactor == 0 {
		return entity.ILFResult{}, domain.NewError(errcodes.InvalidILFTable,
			fmt.Sprintf("zero factor at basic limit %v", basicLimit))
	}

	ilf := factorAt(sorted, selectedLimit) / basicFactor

	return entity.ILFResult{
		ILF:                   ilf,
		BasicLimitPremium:     round2(basePremium),
		IncreasedLimitPremium: round2(basePremium * ilf),
	}, nil
}

// factorAt expects a table already sorted ascending by limit.
func factorAt(table []entity.ILFTableEntry, limit float64) float64 {
	if len(table) == 0 {
		return 1
	}

	var lower, upper *entity.ILFTableEntry

	for i := range table {
		entry := &table[i]

		if entry.Limit == limit {
			return entry.Factor
		}

		if entry.Limit < limit {
			lower = entry
			continue
		}

		upper = entry
		break
	}

	// Flat extrapolation outside the table bounds.
	if lower == nil {
		return upper.Factor
	}

	if upper == nil {
		return lower.Factor
	}

	ratio := (limit - lower.Limit) / (upper.Limit - lower.Limit)

	return lower.Factor + ratio*(upper.Factor-lower.Factor)
}
