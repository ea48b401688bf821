package progress

import (
	"strconv"
	"strings"
)

// Default floor range of every building on site.
const (
	DefaultTopFloor    = 20
	DefaultBottomFloor = 1
)

// DefaultFallbackLayout is returned for buildings the resolver does not know.
// Unknown input never blocks the operator; it gets the widest layout instead.
var DefaultFallbackLayout = []string{"1", "2", "3", "4", "5"}

// defaultSiteLayouts is the unit layout table shipped with the site.
var defaultSiteLayouts = map[Building]int{
	101: 4, 102: 4, 103: 3, 104: 3, 105: 4,
	106: 4, 107: 5, 108: 5, 109: 4, 110: 4,
	111: 3, 112: 3, 113: 4, 114: 4, 115: 5,
	116: 4, 117: 4, 118: 3, 119: 4, 120: 4,
}

// LayoutResolver maps a building to its ordered unit columns and the floor
// range rendered for every building.
type LayoutResolver interface {
	// Resolve returns a non-empty, order-significant list of unit-column ids.
	Resolve(b Building) []string
	// Floors returns floor numbers top to bottom.
	Floors() []int
}

// StaticLayoutResolver resolves layouts from a fixed table.
type StaticLayoutResolver struct {
	layouts     map[Building][]string
	fallback    []string
	topFloor    int
	bottomFloor int
}

// LayoutOption configures a StaticLayoutResolver
type LayoutOption func(*StaticLayoutResolver)

// WithBuildingLayout overrides the unit columns of a single building.
func WithBuildingLayout(b Building, units []string) LayoutOption {
	return func(r *StaticLayoutResolver) {
		if cleaned := cleanUnits(units); len(cleaned) > 0 {
			r.layouts[b] = cleaned
		}
	}
}

// WithFallbackLayout sets the layout used for unknown buildings.
func WithFallbackLayout(units []string) LayoutOption {
	return func(r *StaticLayoutResolver) {
		if cleaned := cleanUnits(units); len(cleaned) > 0 {
			r.fallback = cleaned
		}
	}
}

// WithFloorRange sets the floor range. Ranges where top < bottom are ignored.
func WithFloorRange(top, bottom int) LayoutOption {
	return func(r *StaticLayoutResolver) {
		if top >= bottom {
			r.topFloor = top
			r.bottomFloor = bottom
		}
	}
}

// NewStaticLayoutResolver creates a resolver with no per-building entries;
// every building resolves to the fallback until options add layouts.
func NewStaticLayoutResolver(opts ...LayoutOption) *StaticLayoutResolver {
	r := &StaticLayoutResolver{
		layouts:     make(map[Building][]string),
		fallback:    cloneStrings(DefaultFallbackLayout),
		topFloor:    DefaultTopFloor,
		bottomFloor: DefaultBottomFloor,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultLayoutResolver returns the resolver for the shipped site table,
// with any extra options applied on top of it.
func DefaultLayoutResolver(opts ...LayoutOption) *StaticLayoutResolver {
	base := make([]LayoutOption, 0, len(defaultSiteLayouts)+len(opts))
	for b, count := range defaultSiteLayouts {
		base = append(base, WithBuildingLayout(b, SequentialUnits(count)))
	}
	return NewStaticLayoutResolver(append(base, opts...)...)
}

// Resolve implements LayoutResolver
func (r *StaticLayoutResolver) Resolve(b Building) []string {
	if units, ok := r.layouts[b]; ok {
		return cloneStrings(units)
	}
	return cloneStrings(r.fallback)
}

// Floors implements LayoutResolver
func (r *StaticLayoutResolver) Floors() []int {
	floors := make([]int, 0, r.topFloor-r.bottomFloor+1)
	for f := r.topFloor; f >= r.bottomFloor; f-- {
		floors = append(floors, f)
	}
	return floors
}

// Known reports whether b has an explicit layout entry.
func (r *StaticLayoutResolver) Known(b Building) bool {
	_, ok := r.layouts[b]
	return ok
}

// SequentialUnits returns the unit ids "1".."n".
func SequentialUnits(n int) []string {
	units := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		units = append(units, strconv.Itoa(i))
	}
	return units
}

// UnitLabel builds the stable label of a cell: the floor number followed by
// the unit column zero padded to two characters, e.g. (20, "3") -> "2003".
func UnitLabel(floor int, unit string) string {
	if len(unit) < 2 {
		unit = strings.Repeat("0", 2-len(unit)) + unit
	}
	return strconv.Itoa(floor) + unit
}

func cleanUnits(units []string) []string {
	out := make([]string, 0, len(units))
	seen := make(map[string]struct{}, len(units))
	for _, u := range units {
		u = NormalizeColumnID(u)
		if u == "" || IsFrozenColumn(u) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
