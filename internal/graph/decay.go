package graph

import (
	"fmt"
	"log"
	"time"

	"github.com/asifhussain60/cortex-kg/internal/metrics"
	"github.com/asifhussain60/cortex-kg/internal/store"
)

// DecayReport summarizes one maintenance run. A failure mid-batch leaves
// already-processed patterns decayed and logged; Remaining lists the ids the
// run never reached, so operators can re-run rather than roll back.
type DecayReport struct {
	Examined  int      `json:"examined"`
	Reduced   int      `json:"reduced"`
	Deleted   int      `json:"deleted"`
	Remaining []string `json:"remaining,omitempty"`
	Err       error    `json:"-"`
}

// DecayCandidates previews which patterns the next run would touch, without
// mutating anything.
func (g *Graph) DecayCandidates() ([]store.Pattern, error) {
	return g.db.DecayCandidates(g.cutoff(store.Now()))
}

// RunDecay applies confidence decay to every candidate, one per-row
// transaction at a time — the same write discipline as any other caller, so
// a pattern touched concurrently is simply re-evaluated from its committed
// state inside the transaction. Pinned patterns are immune absolutely.
func (g *Graph) RunDecay() DecayReport {
	now := store.Now()
	cutoff := g.cutoff(now)

	candidates, err := g.db.DecayCandidates(cutoff)
	if err != nil {
		return DecayReport{Err: fmt.Errorf("decay candidates: %w", err)}
	}

	report := DecayReport{Examined: len(candidates)}
	for i, p := range candidates {
		action, err := g.db.DecayPattern(p.ID, cutoff, g.cfg.DecayDailyRate, g.cfg.DecayFloor, now)
		if err != nil {
			for _, rest := range candidates[i:] {
				report.Remaining = append(report.Remaining, rest.ID)
			}
			report.Err = fmt.Errorf("decay %s: %w", p.ID, err)
			return report
		}
		switch action {
		case store.DecayReduced:
			report.Reduced++
			metrics.DecayReduced.Inc()
		case store.DecayDeleted:
			report.Deleted++
			metrics.DecayDeleted.Inc()
		}
	}
	return report
}

// StartDecayTimer runs decay once now and then daily until Stop.
func (g *Graph) StartDecayTimer() {
	g.runDecayLogged()

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				g.runDecayLogged()
			case <-g.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the decay timer. Safe to call any number of times, from
// any goroutine; Close calls it.
func (g *Graph) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})
}

func (g *Graph) runDecayLogged() {
	report := g.RunDecay()
	if report.Err != nil {
		log.Printf("decay error (%d unprocessed): %v", len(report.Remaining), report.Err)
		return
	}
	if report.Reduced > 0 || report.Deleted > 0 {
		log.Printf("decay: examined %d, reduced %d, deleted %d", report.Examined, report.Reduced, report.Deleted)
	}
}

func (g *Graph) cutoff(now int64) int64 {
	return now - int64(g.cfg.DecayThresholdDays)*24*60*60*1000
}
