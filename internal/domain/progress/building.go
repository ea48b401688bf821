package progress

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// BuildingSuffix is the Korean counter appended to building numbers ("101동").
const BuildingSuffix = "동"

// Building identifies one structure on the site by its numeric code.
type Building int

// String renders the building the way the site labels it, e.g. "101동".
func (b Building) String() string {
	return strconv.Itoa(int(b)) + BuildingSuffix
}

// Code returns the bare numeric code.
func (b Building) Code() int {
	return int(b)
}

// ParseBuilding accepts "101", "101동", full-width digits and decomposed Hangul.
func ParseBuilding(s string) (Building, error) {
	v := normalizeIdentifier(s)
	v = strings.TrimSuffix(v, BuildingSuffix)
	v = strings.TrimSpace(v)
	code, err := strconv.Atoi(v)
	if err != nil || code <= 0 {
		return 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid building identifier %q", s))
	}
	return Building(code), nil
}

// BuildingRange returns every building from first to last inclusive.
func BuildingRange(first, last int) []Building {
	if last < first {
		return nil
	}
	out := make([]Building, 0, last-first+1)
	for code := first; code <= last; code++ {
		out = append(out, Building(code))
	}
	return out
}

// normalizeIdentifier folds user supplied identifiers to a canonical form:
// NFC composed Hangul, narrow ASCII digits and no surrounding space.
func normalizeIdentifier(s string) string {
	s = norm.NFC.String(s)
	s = width.Narrow.String(s)
	return strings.TrimSpace(s)
}
