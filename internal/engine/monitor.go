// Package engine owns the monitoring state machine: which producer is
// active, the single risk register for the current call, and the
// escalation policy applied to every segment.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scamshield/internal/analyzer"
	"scamshield/internal/capture"
	"scamshield/internal/logger"
	"scamshield/internal/metrics"
	"scamshield/internal/risk"
	"scamshield/internal/scenario"
	"scamshield/internal/types"
)

// ErrInvalidState rejects a start while the other producer is running.
var ErrInvalidState = errors.New("engine: operation not valid in current state")

const (
	endOfCallGrace    = 2 * time.Second
	defaultCallGapMin = 5 * time.Second
	defaultCallGapMax = 15 * time.Second
	defaultLanguage   = "en"
)

// Analyzer is the slice of the analyzer client the engine needs. Satisfied
// by *analyzer.Client.
type Analyzer interface {
	CheckHealth(ctx context.Context) bool
	Upload(ctx context.Context, filename string, audio []byte) (string, error)
	Analyze(ctx context.Context, fileID string, opts analyzer.AnalyzeOptions) (analyzer.Result, error)
}

// Config wires a Monitor. Analyzer and Device may be nil when the matching
// mode is never started.
type Config struct {
	Analyzer      Analyzer
	Catalog       []types.Scenario
	Device        capture.Device
	ChunkDuration time.Duration
	Thresholds    risk.Thresholds
	Language      string
	Listener      Listener
	Metrics       *metrics.Metrics

	// Gap between scripted calls; zero values take the 5-15s defaults.
	CallGapMin time.Duration
	CallGapMax time.Duration
}

// Stats are session-lifetime counters, mirrored into prometheus.
type Stats struct {
	CallsMonitored int `json:"calls_monitored"`
	ScamsDetected  int `json:"scams_detected"`
}

// Status is the external view served by /status.
type Status struct {
	Mode           types.MonitoringMode `json:"mode"`
	Risk           risk.Current         `json:"risk"`
	Thresholds     risk.Thresholds      `json:"thresholds"`
	Language       string               `json:"language"`
	Session        *types.CallSession   `json:"session,omitempty"`
	Capture        *capture.State       `json:"capture,omitempty"`
	DetailExpanded bool                 `json:"detail_expanded"`
	Stats          Stats                `json:"stats"`
}

// Monitor is the one stateful object of the system. All mutation funnels
// through its mutex; producers hand segments in via generation-keyed apply
// methods and never touch the register directly.
type Monitor struct {
	cfg      Config
	listener Listener
	metrics  *metrics.Metrics
	log      *logrus.Entry
	rng      *rand.Rand

	mu           sync.Mutex
	mode         types.MonitoringMode
	generation   uint64
	thresholds   risk.Thresholds
	language     string
	current      risk.Current
	session      *types.CallSession
	expanded     bool
	stats        Stats
	cancel       context.CancelFunc
	producerDone chan struct{}
	pipeline     *capture.Pipeline
}

func NewMonitor(cfg Config) *Monitor {
	if cfg.Listener == nil {
		cfg.Listener = NopListener{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Thresholds == (risk.Thresholds{}) {
		cfg.Thresholds = risk.DefaultThresholds()
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.CallGapMin <= 0 {
		cfg.CallGapMin = defaultCallGapMin
	}
	if cfg.CallGapMax < cfg.CallGapMin {
		cfg.CallGapMax = defaultCallGapMax
	}
	return &Monitor{
		cfg:        cfg,
		listener:   cfg.Listener,
		metrics:    cfg.Metrics,
		log:        logger.Component("engine"),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		mode:       types.ModeIdle,
		thresholds: cfg.Thresholds,
		language:   cfg.Language,
		current:    risk.Reset(),
	}
}

func (m *Monitor) Mode() types.MonitoringMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *Monitor) CurrentRisk() risk.Current {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Status{
		Mode:           m.mode,
		Risk:           m.current,
		Thresholds:     m.thresholds,
		Language:       m.language,
		DetailExpanded: m.expanded,
		Stats:          m.stats,
	}
	if m.session != nil {
		cp := *m.session
		cp.Segments = append([]types.Segment(nil), m.session.Segments...)
		s.Session = &cp
	}
	if m.pipeline != nil {
		cs := m.pipeline.Snapshot()
		s.Capture = &cs
	}
	return s
}

// SetLanguage changes the preferred scenario language for the next pick.
func (m *Monitor) SetLanguage(lang string) {
	if lang == "" {
		lang = defaultLanguage
	}
	m.mu.Lock()
	m.language = lang
	m.mu.Unlock()
}

// SetThresholds swaps the classification boundaries and re-evaluates the
// live register immediately, so a threshold change flips the displayed
// level without waiting for a new segment.
func (m *Monitor) SetThresholds(t risk.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.thresholds = t
	old := m.current.Level
	level := risk.Classify(m.current.Score, t)
	flipped := m.mode != types.ModeIdle && level != old
	if flipped {
		m.current.Level = level
		m.current.Description = risk.Describe(level)
	}
	current := m.current
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"suspicious": t.Suspicious,
		"scam":       t.Scam,
	}).Info("thresholds updated")
	if flipped {
		m.listener.OnRiskUpdate(current)
		if level == risk.LevelScam || level == risk.LevelSuspicious {
			m.listener.OnEscalation(level)
		}
	}
	return nil
}

// StartScripted begins the scripted demo loop. No-op when already
// scripted; rejected while live capture runs.
func (m *Monitor) StartScripted(ctx context.Context) error {
	m.mu.Lock()
	switch m.mode {
	case types.ModeScripted:
		m.mu.Unlock()
		return nil
	case types.ModeLive:
		m.mu.Unlock()
		return fmt.Errorf("%w: live monitoring active", ErrInvalidState)
	}
	prodCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	m.mode = types.ModeScripted
	m.cancel = cancel
	m.producerDone = done
	gen := m.generation
	m.mu.Unlock()

	go m.scriptedLoop(prodCtx, gen, done)
	m.log.Info("scripted monitoring started")
	m.listener.OnModeChange(types.ModeScripted)
	return nil
}

// StartLive begins chunked capture of the host audio stream. Gated on the
// analyzer answering its health check; device failures surface their typed
// reason and the monitor stays idle.
func (m *Monitor) StartLive(ctx context.Context) error {
	m.mu.Lock()
	switch m.mode {
	case types.ModeLive:
		m.mu.Unlock()
		return nil
	case types.ModeScripted:
		m.mu.Unlock()
		return fmt.Errorf("%w: scripted monitoring active", ErrInvalidState)
	}
	m.mu.Unlock()

	if m.cfg.Device == nil {
		return capture.ErrUnsupported
	}
	if m.cfg.Analyzer == nil || !m.cfg.Analyzer.CheckHealth(ctx) {
		return fmt.Errorf("%w: analyzer health check failed", analyzer.ErrServiceUnavailable)
	}

	m.mu.Lock()
	if m.mode != types.ModeIdle {
		m.mu.Unlock()
		return fmt.Errorf("%w: monitoring already active", ErrInvalidState)
	}
	prodCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	gen := m.generation
	pipeline := capture.NewPipeline(m.cfg.Device, capture.DefaultFormat(), m.cfg.ChunkDuration, func(c capture.Chunk) {
		m.processChunk(gen, c)
	})
	if err := pipeline.Start(prodCtx); err != nil {
		cancel()
		m.mu.Unlock()
		return err
	}
	m.mode = types.ModeLive
	m.cancel = cancel
	m.pipeline = pipeline
	m.mu.Unlock()

	m.beginCall(gen, "Live call")
	m.log.Info("live monitoring started")
	m.listener.OnModeChange(types.ModeLive)
	return nil
}

// Stop halts whichever producer is active, releases the capture device
// and resets the register. Results still in flight are invalidated by the
// generation bump. Idempotent; stop from idle is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.mode == types.ModeIdle {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.producerDone
	pipeline := m.pipeline
	m.cancel = nil
	m.producerDone = nil
	m.pipeline = nil
	m.generation++
	m.mode = types.ModeIdle
	m.session = nil
	m.expanded = false
	m.current = risk.Reset()
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if pipeline != nil {
		pipeline.Stop()
	}

	m.metrics.CurrentRisk.Set(0)
	m.log.Info("monitoring stopped")
	m.listener.OnModeChange(types.ModeIdle)
	m.listener.OnRiskUpdate(risk.Reset())
}

// scriptedLoop plays random scenarios back to back with randomized gaps
// until canceled. The loop is the sole producer for its generation.
func (m *Monitor) scriptedLoop(ctx context.Context, gen uint64, done chan<- struct{}) {
	defer close(done)
	for {
		m.mu.Lock()
		lang := m.language
		m.mu.Unlock()

		sc, ok := scenario.PickRandom(m.rng, m.cfg.Catalog, lang)
		if !ok {
			m.log.Warn("scenario catalog empty, scripted loop exiting")
			return
		}
		m.beginCall(gen, sc.Title)
		m.log.WithFields(logrus.Fields{
			"scenario": sc.ID,
			"language": sc.Language,
		}).Info("playing scenario")

		if err := PlayTimeline(ctx, sc.Messages, func(seg types.Segment) {
			m.applyScripted(gen, seg)
		}); err != nil {
			return
		}
		if !sleepCtx(ctx, endOfCallGrace) {
			return
		}
		m.endCall(gen)

		gap := m.cfg.CallGapMin
		if spread := m.cfg.CallGapMax - m.cfg.CallGapMin; spread > 0 {
			gap += time.Duration(m.rng.Int63n(int64(spread)))
		}
		if !sleepCtx(ctx, gap) {
			return
		}
	}
}

// processChunk runs one captured chunk through upload and analysis. Any
// failure drops the chunk; monitoring continues on the next one.
func (m *Monitor) processChunk(gen uint64, chunk capture.Chunk) {
	ctx := context.Background()
	name := fmt.Sprintf("chunk-%04d.wav", chunk.Seq)

	fileID, err := m.cfg.Analyzer.Upload(ctx, name, chunk.Data)
	if err != nil {
		m.metrics.ChunkFailures.WithLabelValues("upload").Inc()
		m.log.WithError(err).WithField("chunk", chunk.Seq).Warn("chunk upload failed, dropping")
		return
	}

	start := time.Now()
	res, err := m.cfg.Analyzer.Analyze(ctx, fileID, analyzer.AnalyzeOptions{})
	if err != nil {
		m.metrics.ChunkFailures.WithLabelValues("analyze").Inc()
		m.log.WithError(err).WithField("chunk", chunk.Seq).Warn("chunk analysis failed, dropping")
		return
	}
	m.metrics.AnalyzeLatency.Observe(time.Since(start).Seconds())

	m.mu.Lock()
	thresholds := m.thresholds
	m.mu.Unlock()
	m.applyAnalysis(gen, analyzer.Normalize(res, thresholds))
}

// beginCall opens a fresh session. Whatever the previous register said is
// superseded.
func (m *Monitor) beginCall(gen uint64, title string) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.session = &types.CallSession{
		ID:        uuid.New().String(),
		Title:     title,
		StartedAt: time.Now(),
	}
	m.expanded = false
	m.current = risk.Current{Level: risk.LevelSafe, Description: risk.Describe(risk.LevelSafe)}
	m.stats.CallsMonitored++
	current := m.current
	m.mu.Unlock()

	m.metrics.CallsMonitored.Inc()
	m.metrics.CurrentRisk.Set(0)
	m.listener.OnRiskUpdate(current)
}

func (m *Monitor) endCall(gen uint64) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.current = risk.Reset()
	current := m.current
	m.mu.Unlock()

	m.metrics.CurrentRisk.Set(0)
	m.listener.OnRiskUpdate(current)
}

// applyScripted folds one scripted segment into the session and register.
func (m *Monitor) applyScripted(gen uint64, seg types.Segment) {
	m.mu.Lock()
	if gen != m.generation || m.session == nil {
		m.mu.Unlock()
		return
	}
	m.session.Segments = append(m.session.Segments, seg)
	level := risk.Classify(seg.Risk, m.thresholds)
	m.current = risk.Current{
		Score:       seg.Risk,
		Level:       level,
		Confidence:  m.current.Confidence,
		Description: risk.Describe(level),
	}
	m.finishApplyLocked([]types.Segment{seg}, level)
}

// applyAnalysis folds a normalized chunk result into the session and
// register. Out-of-order chunk completions simply overwrite: the register
// always reflects the last applied result.
func (m *Monitor) applyAnalysis(gen uint64, norm analyzer.Normalized) {
	m.mu.Lock()
	if gen != m.generation || m.session == nil {
		m.mu.Unlock()
		return
	}
	m.session.Segments = append(m.session.Segments, norm.Segments...)
	level := risk.Classify(norm.Score, m.thresholds)
	m.current = risk.Current{
		Score:       norm.Score,
		Level:       level,
		Confidence:  norm.Confidence,
		Description: risk.Describe(level),
	}
	m.finishApplyLocked(norm.Segments, level)
}

// finishApplyLocked runs the shared tail of both apply paths: escalation
// bookkeeping under the lock, then listener fan-out after releasing it.
// Callers hold m.mu; it is released here.
func (m *Monitor) finishApplyLocked(segments []types.Segment, level risk.Level) {
	current := m.current
	escalate := level == risk.LevelScam || level == risk.LevelSuspicious
	if level == risk.LevelScam {
		m.stats.ScamsDetected++
		if !m.expanded {
			m.expanded = true
		}
	}
	m.mu.Unlock()

	m.metrics.SegmentsApplied.Add(float64(len(segments)))
	m.metrics.CurrentRisk.Set(float64(current.Score))
	if level == risk.LevelScam {
		m.metrics.ScamsDetected.Inc()
	}

	for _, seg := range segments {
		m.listener.OnSegment(seg)
	}
	m.listener.OnRiskUpdate(current)
	if escalate {
		m.listener.OnEscalation(level)
	}
}
