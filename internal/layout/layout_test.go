package layout

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsDeterministic(t *testing.T) {
	for _, class := range Classes() {
		for _, seed := range []int64{0, 1, 7, 42, -99, 1 << 40} {
			first, err := Generate(class, seed)
			require.NoError(t, err)

			second, err := Generate(class, seed)
			require.NoError(t, err)

			a, err := json.Marshal(first)
			require.NoError(t, err)
			b, err := json.Marshal(second)
			require.NoError(t, err)

			assert.Equal(t, a, b, "class %s seed %d", class, seed)
		}
	}
}

func TestGenerateClassifiesEveryCell(t *testing.T) {
	for _, class := range Classes() {
		v, err := VenueFor(class)
		require.NoError(t, err)

		for seed := int64(0); seed < 20; seed++ {
			grid, err := Generate(class, seed)
			require.NoError(t, err)

			seats, gaps := 0, 0
			for _, row := range grid.Cells {
				require.Len(t, row, v.Cols)

				for _, cell := range row {
					if cell.Gap {
						gaps++
						assert.Empty(t, cell.SeatID)
						continue
					}

					seats++
					assert.NotEmpty(t, cell.SeatID)
					assert.True(t, cell.Price.IsPositive())
				}
			}

			assert.Len(t, grid.Cells, v.Rows)
			assert.Equal(t, v.Rows*v.Cols, seats+gaps)
			assert.Equal(t, grid.SeatCount, seats)
			assert.Equal(t, grid.GapCount, gaps)
		}
	}
}

func TestGenerateSeedOnlyMovesCornerBlocks(t *testing.T) {
	placements := make(map[string]bool)

	var seatCount int
	for seed := int64(0); seed < 64; seed++ {
		grid, err := Generate(domain.VenueMid, seed)
		require.NoError(t, err)

		if seed == 0 {
			seatCount = grid.SeatCount
		}

		// aisle column, walkway cells off the aisle, two corner blocks
		assert.Equal(t, 18+18+18, grid.GapCount)
		assert.Equal(t, seatCount, grid.SeatCount)
		assert.Equal(t, 18, grid.Rows)
		assert.Equal(t, 22, grid.Cols)

		key := ""
		for _, id := range []domain.SeatID{"A1", "A22", "R1", "R22"} {
			if _, ok := grid.Seat(id); ok {
				key += "1"
			} else {
				key += "0"
			}
		}
		placements[key] = true
	}

	assert.Greater(t, len(placements), 1, "different seeds should place the corner blocks differently")
	for key := range placements {
		gapCorners := 0
		for _, ch := range key {
			if ch == '0' {
				gapCorners++
			}
		}
		assert.Equal(t, 2, gapCorners, "exactly two corners carry a gap block: %s", key)
	}
}

func TestGenerateStructuralGaps(t *testing.T) {
	grid, err := Generate(domain.VenueMid, 7)
	require.NoError(t, err)

	assert.Equal(t, 11, grid.AisleColumn)
	for r := range grid.Cells {
		assert.True(t, grid.Cells[r][grid.AisleColumn-1].Gap, "row %d aisle", r)
	}

	for r := 8; r <= 10; r++ {
		for c := 8; c <= 14; c++ {
			assert.True(t, grid.Cells[r][c-1].Gap, "walkway cell %d,%d", r, c)
		}
	}

	assert.Equal(t, []int{5, 11}, grid.DividersAt)
}

func TestGenerateTiers(t *testing.T) {
	grid, err := Generate(domain.VenueMid, 7)
	require.NoError(t, err)

	for id, want := range map[domain.SeatID]domain.Tier{
		"C4":  domain.TierStandard,
		"P5":  domain.TierStandard,
		"Q5":  domain.TierPremium,
		"R5":  domain.TierLuxury,
		"Q12": domain.TierPremium,
	} {
		cell, ok := grid.Seat(id)
		require.True(t, ok, "seat %s", id)
		assert.Equal(t, want, cell.Tier, "seat %s", id)
	}

	cell, _ := grid.Seat("C4")
	assert.True(t, decimal.NewFromInt(200).Equal(cell.Price))
	cell, _ = grid.Seat("R5")
	assert.True(t, decimal.NewFromInt(700).Equal(cell.Price))
}

func TestGridSeatRejectsGapsAndUnknownLabels(t *testing.T) {
	grid, err := Generate(domain.VenueMid, 7)
	require.NoError(t, err)

	for _, id := range []domain.SeatID{"C11", "J10", "S1", "A23", "A0", "garbage"} {
		_, ok := grid.Seat(id)
		assert.False(t, ok, "seat %s", id)
	}
}

func TestGenerateUnknownClass(t *testing.T) {
	_, err := Generate("stadium", 1)
	assert.True(t, errors.Is(err, domain.ErrUnknownVenueClass))
}

func TestValidateLayoutTooSmall(t *testing.T) {
	base, err := VenueFor(domain.VenueBoutique)
	require.NoError(t, err)

	tests := []struct {
		name string
		edit func(v *Venue)
	}{
		{name: "corner blocks overlap vertically", edit: func(v *Venue) { v.Rows = 4 }},
		{name: "corner blocks overlap horizontally", edit: func(v *Venue) { v.Cols = 5 }},
		{name: "walkway wider than the grid", edit: func(v *Venue) { v.Cols = 6 }},
		{name: "empty grid", edit: func(v *Venue) { v.Rows = 0 }},
		{name: "tier row beyond the grid", edit: func(v *Venue) {
			v.TrailingTiers = map[int]domain.Tier{13: domain.TierLuxury}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := base
			tt.edit(&v)

			assert.True(t, errors.Is(v.Validate(), domain.ErrLayoutTooSmall))

			_, err := v.Generate(domain.VenueBoutique, 1)
			assert.True(t, errors.Is(err, domain.ErrLayoutTooSmall))
		})
	}
}

func TestValidateClasses(t *testing.T) {
	assert.NoError(t, ValidateClasses())
}
