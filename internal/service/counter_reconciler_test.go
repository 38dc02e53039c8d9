package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCounterStore struct {
	fixed   int
	err     error
	batches []int
}

func (f *fakeCounterStore) ReconcileCounters(_ context.Context, batchSize int) (int, error) {
	f.batches = append(f.batches, batchSize)
	return f.fixed, f.err
}

func TestReconcileOnce(t *testing.T) {
	assert := assert.New(t)
	repo := &fakeCounterStore{fixed: 3}
	r := NewCounterReconciler(repo, 0)
	assert.Equal(5*time.Minute, r.interval)

	assert.Equal(3, r.ReconcileOnce(context.Background()))
	assert.Equal([]int{500}, repo.batches)

	// 出错时仍返回已修正的条数
	repo.fixed, repo.err = 1, errors.New("deadlock")
	assert.Equal(1, r.ReconcileOnce(context.Background()))
	assert.Len(repo.batches, 2)
}
