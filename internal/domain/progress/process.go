package progress

import (
	"fmt"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
)

// Process is a construction phase tracked per building.
type Process string

const (
	ProcessIndoorUnit    Process = "indoor-unit"   // 실내기
	ProcessOutdoorUnit   Process = "outdoor-unit"  // 실외기
	ProcessPanel         Process = "panel"         // 판넬
	ProcessCommissioning Process = "commissioning" // 시운전
)

var processDisplayNames = map[Process]string{
	ProcessIndoorUnit:    "실내기",
	ProcessOutdoorUnit:   "실외기",
	ProcessPanel:         "판넬",
	ProcessCommissioning: "시운전",
}

// AllProcesses returns the processes in their on-site display order.
func AllProcesses() []Process {
	return []Process{ProcessIndoorUnit, ProcessOutdoorUnit, ProcessPanel, ProcessCommissioning}
}

// DisplayName returns the Korean label used on site.
func (p Process) DisplayName() string {
	if name, ok := processDisplayNames[p]; ok {
		return name
	}
	return string(p)
}

// IsValid reports whether p is one of the known processes.
func (p Process) IsValid() bool {
	_, ok := processDisplayNames[p]
	return ok
}

// ParseProcess accepts either the identifier ("indoor-unit") or the Korean
// display name ("실내기").
func ParseProcess(s string) (Process, error) {
	v := normalizeIdentifier(s)
	if p := Process(v); p.IsValid() {
		return p, nil
	}
	for p, name := range processDisplayNames {
		if name == v {
			return p, nil
		}
	}
	return "", shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid process %q", s))
}
