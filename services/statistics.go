package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/madins005/KSM-Education-Home-Journal/models"
	"github.com/madins005/KSM-Education-Home-Journal/storage"
)

// Animation durations: a slow sweep on first paint, a quick hop on live
// changes.
const (
	initialArticleSweep = 1500 * time.Millisecond
	initialVisitorSweep = 2 * time.Second
	changeHop           = 500 * time.Millisecond
)

// Statistics is the single source of truth for the two displayed
// counters. The article count is derived: it always equals the sum of the
// two collection lengths and is repaired against that truth on every
// recompute, never incremented speculatively and left to drift.
type Statistics struct {
	store    storage.Store
	journals *Collection
	opinions *Collection
	log      *zap.Logger
	onChange func(articles, visitors int)

	articleAnim *CounterAnimator
	visitorAnim *CounterAnimator

	mu       sync.Mutex
	snapshot models.StatsSnapshot
}

// NewStatistics loads the persisted snapshot, wires the change
// subscriptions and reconciles once. The sinks receive every animation
// frame; either may be nil. onChange fires once per settled recompute and
// is where the metrics gauges hang.
func NewStatistics(store storage.Store, journals, opinions *Collection, bus *Bus,
	articleSink, visitorSink func(int), onChange func(articles, visitors int), log *zap.Logger) *Statistics {

	s := &Statistics{
		store:       store,
		journals:    journals,
		opinions:    opinions,
		log:         log,
		onChange:    onChange,
		articleAnim: NewCounterAnimator(orNoop(articleSink)),
		visitorAnim: NewCounterAnimator(orNoop(visitorSink)),
	}
	s.loadSnapshot()
	s.Reconcile(0)

	// Same-process mutations and bridged cross-context writes both land
	// here; the handler recomputes from storage, so double delivery is
	// harmless.
	bus.Subscribe(storage.KeyJournals, func() { s.Reconcile(changeHop) })
	bus.Subscribe(storage.KeyOpinions, func() { s.Reconcile(changeHop) })
	bus.Subscribe(storage.KeyStatistics, func() { s.adoptExternal() })

	return s
}

// AnimateInitial sweeps both counters up from zero, the first-paint
// effect of the stats banner.
func (s *Statistics) AnimateInitial() {
	snap := s.Snapshot()
	s.articleAnim.Show(0)
	s.visitorAnim.Show(0)
	s.articleAnim.AnimateTo(snap.Articles, initialArticleSweep)
	s.visitorAnim.AnimateTo(snap.Visitors, initialVisitorSweep)
}

// Reconcile recomputes the article count from both collections, repairs
// the snapshot and animates the display towards the fresh value over the
// given duration (0 renders immediately).
func (s *Statistics) Reconcile(animate time.Duration) {
	articles := len(s.journals.Reload()) + len(s.opinions.Reload())

	s.mu.Lock()
	s.snapshot.Articles = articles
	visitors := s.snapshot.Visitors
	s.persistLocked()
	s.mu.Unlock()

	if animate > 0 {
		s.articleAnim.AnimateTo(articles, animate)
	} else {
		s.articleAnim.Show(articles)
	}
	if s.onChange != nil {
		s.onChange(articles, visitors)
	}
}

// TrackVisitor counts the session's visitor exactly once; later calls in
// the same session are no-ops.
func (s *Statistics) TrackVisitor(sess *Session) {
	if !sess.MarkCounted() {
		return
	}

	s.mu.Lock()
	s.snapshot.Visitors++
	visitors := s.snapshot.Visitors
	articles := s.snapshot.Articles
	s.persistLocked()
	s.mu.Unlock()

	s.visitorAnim.AnimateTo(visitors, changeHop)
	s.log.Info("visitor counted", zap.Int("visitors", visitors))
	if s.onChange != nil {
		s.onChange(articles, visitors)
	}
}

// Snapshot returns a copy of the current aggregate.
func (s *Statistics) Snapshot() models.StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// DisplayedArticles returns the article value currently on screen,
// possibly mid-animation.
func (s *Statistics) DisplayedArticles() int { return s.articleAnim.Displayed() }

// DisplayedVisitors returns the visitor value currently on screen.
func (s *Statistics) DisplayedVisitors() int { return s.visitorAnim.Displayed() }

// adoptExternal folds in a snapshot written by another context (its
// visitor counts are authoritative for it), then repairs the article
// count against local collection truth.
func (s *Statistics) adoptExternal() {
	raw, ok := s.store.Get(storage.KeyStatistics)
	if !ok {
		return
	}
	external, err := models.DecodeStats(raw)
	if err != nil {
		s.log.Warn("external statistics unreadable", zap.Error(err))
		return
	}

	s.mu.Lock()
	if external.Visitors > s.snapshot.Visitors {
		s.snapshot.Visitors = external.Visitors
	}
	visitors := s.snapshot.Visitors
	s.mu.Unlock()

	s.visitorAnim.AnimateTo(visitors, changeHop)
	s.Reconcile(changeHop)
}

func (s *Statistics) loadSnapshot() {
	raw, ok := s.store.Get(storage.KeyStatistics)
	if ok {
		snap, err := models.DecodeStats(raw)
		if err == nil {
			s.snapshot = snap
			if s.snapshot.UniqueVisitorID == "" {
				s.snapshot.UniqueVisitorID = newVisitorID()
			}
			return
		}
		s.log.Warn("stored statistics unreadable, starting fresh", zap.Error(err))
	}
	s.snapshot = models.StatsSnapshot{UniqueVisitorID: newVisitorID()}
}

func (s *Statistics) persistLocked() {
	s.snapshot.LastVisit = time.Now().Format(time.RFC3339)
	raw, err := s.snapshot.Encode()
	if err != nil {
		s.log.Error("statistics encode failed", zap.Error(err))
		return
	}
	if err := s.store.Set(storage.KeyStatistics, raw); err != nil {
		s.log.Error("statistics write failed", zap.Error(err))
	}
}

func newVisitorID() string {
	return "visitor_" + uuid.NewString()
}

func orNoop(sink func(int)) func(int) {
	if sink == nil {
		return func(int) {}
	}
	return sink
}
