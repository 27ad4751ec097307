package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// RunFunc executes one full purchase-plan run.
type RunFunc func(ctx context.Context)

// Daily triggers the purchase plan on a cron schedule, for deployments
// without an external scheduler. Each firing is one complete plan run;
// cycles within a run stay strictly sequential.
type Daily struct {
	spec string
	run  RunFunc

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewDaily(spec string, run RunFunc) *Daily {
	return &Daily{spec: spec, run: run}
}

func (d *Daily) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		fmt.Println("[SCHEDULER] Already running")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(d.spec, func() {
		fmt.Printf("[SCHEDULER] Firing scheduled purchase run (%s)\n", d.spec)
		d.run(ctx)
	}); err != nil {
		return fmt.Errorf("cron spec %q: %w", d.spec, err)
	}

	c.Start()
	d.cron = c
	d.running = true
	fmt.Printf("[SCHEDULER] Started (cron %q)\n", d.spec)
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (d *Daily) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}
	<-d.cron.Stop().Done()
	d.running = false
	fmt.Println("[SCHEDULER] Stopped")
}

func (d *Daily) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
