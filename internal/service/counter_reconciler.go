package service

import (
	"context"
	"time"
)

// CounterStore 能够以子表为准修正冗余计数的存储，只有数据库实现提供
type CounterStore interface {
	ReconcileCounters(ctx context.Context, batchSize int) (int, error)
}

// CounterReconciler 定时对账 memberCount、commentCount 等计数列
type CounterReconciler struct {
	repo      CounterStore
	batchSize int
	interval  time.Duration
}

func NewCounterReconciler(repo CounterStore, interval time.Duration) *CounterReconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CounterReconciler{
		repo:      repo,
		batchSize: 500,
		interval:  interval,
	}
}

// Run 对账定时任务启动器
func (r *CounterReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.ReconcileOnce(ctx)
		}
	}
}

func (r *CounterReconciler) ReconcileOnce(ctx context.Context) int {
	fixed, err := r.repo.ReconcileCounters(ctx, r.batchSize)
	if err != nil {
		log.Error("counter reconcile failed", "err", err)
	}
	countersReconciled.Add(float64(fixed))
	return fixed
}
