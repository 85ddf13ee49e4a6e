package types

import "time"

// Speaker identifies which side of the call produced an utterance.
type Speaker string

const (
	SpeakerCaller Speaker = "Caller"
	SpeakerUser   Speaker = "User"
)

// Segment is one attributed utterance within a call. Immutable once built.
type Segment struct {
	Speaker     Speaker `json:"speaker"`
	Text        string  `json:"text"`
	Risk        int     `json:"risk"`
	TimestampMs int64   `json:"timestamp_ms"`
	Analysis    string  `json:"analysis,omitempty"`
}

// Scenario is a pre-scripted call timeline used by scripted monitoring.
type Scenario struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Language    string    `json:"language"`
	MaxRisk     int       `json:"max_risk"`
	DurationMs  int64     `json:"duration_ms"`
	Description string    `json:"description,omitempty"`
	Messages    []Segment `json:"messages"`
}

// CallSession tracks the single active (or most recent) call.
type CallSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Segments  []Segment `json:"segments"`
}

// MonitoringMode says which producer, if any, is driving the engine.
type MonitoringMode string

const (
	ModeIdle     MonitoringMode = "idle"
	ModeScripted MonitoringMode = "scripted"
	ModeLive     MonitoringMode = "live"
)
