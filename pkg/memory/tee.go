package memory

import (
	"context"

	"github.com/maesd-ai/maesd/pkg/core"
)

// Tee fans writes out to several memories and reads from the first. It
// combines the per-run store with the long-term backends when
// LONG_TERM_MEMORY is on.
type Tee struct {
	primary core.Memory
	others  []core.Memory
}

// NewTee creates a fan-out memory. primary serves Retrieve.
func NewTee(primary core.Memory, others ...core.Memory) *Tee {
	return &Tee{primary: primary, others: others}
}

// Store implements core.Memory. The first error wins but every backend is
// attempted.
func (t *Tee) Store(ctx context.Context, data any) error {
	err := t.primary.Store(ctx, data)
	for _, m := range t.others {
		if e := m.Store(ctx, data); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Retrieve implements core.Memory.
func (t *Tee) Retrieve(ctx context.Context, query any) (any, error) {
	return t.primary.Retrieve(ctx, query)
}

// Close closes every backend that supports it.
func (t *Tee) Close() error {
	var err error
	for _, m := range append([]core.Memory{t.primary}, t.others...) {
		if closer, ok := m.(interface{ Close() error }); ok {
			if e := closer.Close(); e != nil && err == nil {
				err = e
			}
		}
	}
	return err
}

var _ core.Memory = (*Tee)(nil)
