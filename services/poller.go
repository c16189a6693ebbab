package services

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Poller is the safety net for surfaces that may miss change events: on a
// fixed schedule each tracked surface re-reads its source collection and
// re-renders only when the recomputed length differs from what it last
// rendered, so an idle page never flickers.
type Poller struct {
	schedule string
	cron     *cron.Cron
	log      *zap.Logger
}

// NewPoller creates a stopped poller with a cron schedule such as
// "@every 5s".
func NewPoller(schedule string, log *zap.Logger) *Poller {
	return &Poller{
		schedule: schedule,
		cron:     cron.New(),
		log:      log,
	}
}

// Track registers a surface. reload re-reads the collection and returns
// its length; render redraws the surface. The current length counts as
// already rendered.
func (p *Poller) Track(name string, reload func() int, render func()) error {
	_, err := p.cron.AddFunc(p.schedule, reconcileJob(name, reload, render, p.log))
	return err
}

// reconcileJob builds the per-tick closure. Kept separate from cron wiring
// so the length-gate behavior is testable without a scheduler.
func reconcileJob(name string, reload func() int, render func(), log *zap.Logger) func() {
	last := reload()
	return func() {
		n := reload()
		if n == last {
			return
		}
		log.Info("poll reconcile", zap.String("surface", name), zap.Int("was", last), zap.Int("now", n))
		last = n
		render()
	}
}

// Start begins ticking.
func (p *Poller) Start() {
	p.cron.Start()
}

// Stop clears the schedule. Must run on page teardown so no ticks leak
// past navigation.
func (p *Poller) Stop() {
	p.cron.Stop()
}
