package engine

import (
	"scamshield/internal/risk"
	"scamshield/internal/types"
)

// Listener receives engine events. Implementations must return quickly;
// the engine calls them from its serialized apply path.
type Listener interface {
	OnModeChange(mode types.MonitoringMode)
	OnSegment(seg types.Segment)
	OnRiskUpdate(current risk.Current)
	OnEscalation(level risk.Level)
}

// NopListener discards all events.
type NopListener struct{}

func (NopListener) OnModeChange(types.MonitoringMode) {}
func (NopListener) OnSegment(types.Segment)           {}
func (NopListener) OnRiskUpdate(risk.Current)         {}
func (NopListener) OnEscalation(risk.Level)           {}
