package layout

import (
	"fmt"
	"math/rand/v2"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	cornerBlockSize = 3
	walkwayRows     = 3
	walkwayCols     = 7
)

// Venue describes how the grid of one venue class is generated. TrailingTiers
// maps a row counted from the back (1 is the last row) to its tier; every other
// row is standard.
type Venue struct {
	Rows          int
	Cols          int
	AislePeriod   int
	TrailingTiers map[int]domain.Tier
	Prices        map[domain.Tier]decimal.Decimal
}

var venues = map[domain.VenueClass]Venue{
	domain.VenueLarge: {
		Rows:          15,
		Cols:          20,
		AislePeriod:   5,
		TrailingTiers: map[int]domain.Tier{1: domain.TierLuxury, 2: domain.TierPremium},
		Prices:        prices(250, 600, 800),
	},
	domain.VenueMid: {
		Rows:          18,
		Cols:          22,
		AislePeriod:   6,
		TrailingTiers: map[int]domain.Tier{1: domain.TierLuxury, 2: domain.TierPremium},
		Prices:        prices(200, 500, 700),
	},
	domain.VenueBoutique: {
		Rows:          12,
		Cols:          18,
		AislePeriod:   4,
		TrailingTiers: map[int]domain.Tier{1: domain.TierLuxury, 2: domain.TierPremium},
		Prices:        prices(180, 500, 650),
	},
}

func prices(standard, premium, luxury int64) map[domain.Tier]decimal.Decimal {
	return map[domain.Tier]decimal.Decimal{
		domain.TierStandard: decimal.NewFromInt(standard),
		domain.TierPremium:  decimal.NewFromInt(premium),
		domain.TierLuxury:   decimal.NewFromInt(luxury),
	}
}

// VenueFor returns the generation parameters of a venue class.
func VenueFor(class domain.VenueClass) (Venue, error) {
	v, ok := venues[class]
	if !ok {
		return Venue{}, fmt.Errorf("%w: %q", domain.ErrUnknownVenueClass, class)
	}

	return v, nil
}

// Classes lists the configured venue classes.
func Classes() []domain.VenueClass {
	return []domain.VenueClass{domain.VenueLarge, domain.VenueMid, domain.VenueBoutique}
}

// ValidateClasses checks every configured venue class. It is meant to run once
// at startup; any error is a configuration error.
func ValidateClasses() error {
	for _, class := range Classes() {
		v, err := VenueFor(class)
		if err != nil {
			return err
		}

		if err := v.Validate(); err != nil {
			return fmt.Errorf("venue class %q: %w", class, err)
		}
	}

	return nil
}

// Cell is one coordinate of the grid: a sellable seat or a gap.
type Cell struct {
	SeatID domain.SeatID   `json:"seatId,omitempty"`
	Row    int             `json:"row"`
	Col    int             `json:"col"`
	Gap    bool            `json:"gap"`
	Tier   domain.Tier     `json:"tier,omitempty"`
	Price  decimal.Decimal `json:"price"`
}

// Grid is the immutable output of Generate. Cols are 1-based on cells; rows are
// zero-based indexes into RowLabels.
type Grid struct {
	Class       domain.VenueClass `json:"class"`
	Seed        int64             `json:"seed"`
	Rows        int               `json:"rows"`
	Cols        int               `json:"cols"`
	RowLabels   []string          `json:"rowLabels"`
	DividersAt  []int             `json:"dividersAt"`
	Cells       [][]Cell          `json:"cells"`
	AisleColumn int               `json:"aisleColumn"`
	SeatCount   int               `json:"seatCount"`
	GapCount    int               `json:"gapCount"`
}

// Seat returns the cell of a seat label, if the label is a sellable seat.
func (g *Grid) Seat(id domain.SeatID) (Cell, bool) {
	cell, ok := g.Lookup(id)

	return cell, ok && !cell.Gap
}

// Lookup returns the cell addressed by a label, gap or not.
func (g *Grid) Lookup(id domain.SeatID) (Cell, bool) {
	row, col, err := domain.ParseSeatID(string(id))
	if err != nil || col > g.Cols {
		return Cell{}, false
	}

	for i, label := range g.RowLabels {
		if label == row {
			return g.Cells[i][col-1], true
		}
	}

	return Cell{}, false
}

// Generate builds the grid of a venue class. The seed only drives which two
// corners receive a structural gap block, so equal inputs give equal grids.
func Generate(class domain.VenueClass, seed int64) (*Grid, error) {
	v, err := VenueFor(class)
	if err != nil {
		return nil, err
	}

	return v.Generate(class, seed)
}

func (v Venue) Generate(class domain.VenueClass, seed int64) (*Grid, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	gaps := v.walkway()
	for _, corner := range pickCorners(seed) {
		gaps = append(gaps, v.cornerBlock(corner))
	}

	grid := &Grid{
		Class:       class,
		Seed:        seed,
		Rows:        v.Rows,
		Cols:        v.Cols,
		RowLabels:   make([]string, v.Rows),
		DividersAt:  []int{},
		Cells:       make([][]Cell, v.Rows),
		AisleColumn: v.aisleColumn(),
	}

	for r := 0; r < v.Rows; r++ {
		label := domain.RowLabel(r)
		tier := v.tierOf(r)
		grid.RowLabels[r] = label
		grid.Cells[r] = make([]Cell, v.Cols)

		for c := 1; c <= v.Cols; c++ {
			cell := Cell{Row: r, Col: c}

			if c == grid.AisleColumn || gaps.contains(r, c) {
				cell.Gap = true
				grid.GapCount++
			} else {
				cell.SeatID = domain.NewSeatID(label, c)
				cell.Tier = tier
				cell.Price = v.Prices[tier]
				grid.SeatCount++
			}

			grid.Cells[r][c-1] = cell
		}

		if (r+1)%v.AislePeriod == 0 && r+1 < v.Rows {
			grid.DividersAt = append(grid.DividersAt, r)
		}
	}

	return grid, nil
}

func (v Venue) tierOf(row int) domain.Tier {
	if tier, ok := v.TrailingTiers[v.Rows-row]; ok {
		return tier
	}

	return domain.TierStandard
}

func (v Venue) aisleColumn() int {
	return v.Cols / 2
}

// Validate rejects parameters whose gap blocks would leave the grid or overlap
// each other. The check covers all four corners so it does not depend on the seed.
func (v Venue) Validate() error {
	if v.Rows < 1 || v.Cols < 1 || v.AislePeriod < 1 {
		return fmt.Errorf("%w: %dx%d, aisle period %d", domain.ErrLayoutTooSmall, v.Rows, v.Cols, v.AislePeriod)
	}

	for back, tier := range v.TrailingTiers {
		if back < 1 || back > v.Rows {
			return fmt.Errorf("%w: %s row %d from the back is outside %d rows", domain.ErrLayoutTooSmall, tier, back, v.Rows)
		}

		if _, ok := v.Prices[tier]; !ok {
			return fmt.Errorf("no price configured for tier %s", tier)
		}
	}

	if _, ok := v.Prices[domain.TierStandard]; !ok {
		return fmt.Errorf("no price configured for tier %s", domain.TierStandard)
	}

	all := v.walkway()
	for c := corner(0); c < cornerCount; c++ {
		all = append(all, v.cornerBlock(c))
	}

	for i, b := range all {
		if !b.within(v.Rows, v.Cols) {
			return fmt.Errorf("%w: %s exceeds %dx%d", domain.ErrLayoutTooSmall, b.name, v.Rows, v.Cols)
		}

		for _, other := range all[i+1:] {
			if b.overlaps(other) {
				return fmt.Errorf("%w: %s overlaps %s", domain.ErrLayoutTooSmall, b.name, other.name)
			}
		}

		if b.name != walkwayName && b.col <= v.aisleColumn() && v.aisleColumn() < b.col+b.width {
			return fmt.Errorf("%w: aisle column %d crosses %s", domain.ErrLayoutTooSmall, v.aisleColumn(), b.name)
		}
	}

	return nil
}

type corner int

const (
	topLeft corner = iota
	topRight
	bottomLeft
	bottomRight
	cornerCount
)

var cornerNames = [...]string{"top-left block", "top-right block", "bottom-left block", "bottom-right block"}

const walkwayName = "walkway"

// pickCorners draws two distinct corners without replacement.
func pickCorners(seed int64) []corner {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	perm := rng.Perm(int(cornerCount))

	return []corner{corner(perm[0]), corner(perm[1])}
}

// block is a rectangle of gap cells; row is zero-based, col is 1-based.
type block struct {
	name   string
	row    int
	col    int
	height int
	width  int
}

func (v Venue) walkway() blocks {
	return blocks{{
		name:   walkwayName,
		row:    v.Rows/2 - 1,
		col:    v.Cols/2 - 3,
		height: walkwayRows,
		width:  walkwayCols,
	}}
}

func (v Venue) cornerBlock(c corner) block {
	b := block{name: cornerNames[c], height: cornerBlockSize, width: cornerBlockSize, row: 0, col: 1}

	if c == bottomLeft || c == bottomRight {
		b.row = v.Rows - cornerBlockSize
	}

	if c == topRight || c == bottomRight {
		b.col = v.Cols - cornerBlockSize + 1
	}

	return b
}

func (b block) within(rows, cols int) bool {
	return b.row >= 0 && b.col >= 1 && b.row+b.height <= rows && b.col+b.width-1 <= cols
}

func (b block) overlaps(o block) bool {
	return b.row < o.row+o.height && o.row < b.row+b.height &&
		b.col < o.col+o.width && o.col < b.col+b.width
}

func (b block) contains(row, col int) bool {
	return row >= b.row && row < b.row+b.height && col >= b.col && col < b.col+b.width
}

type blocks []block

func (bs blocks) contains(row, col int) bool {
	for _, b := range bs {
		if b.contains(row, col) {
			return true
		}
	}

	return false
}
