// Package live keeps an in-memory list of rows in step with the backend's change feed.
package live

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"gigmarket/internal/domain"
)

// Collection is a keyed list of rows. Changes from the feed are merged as they arrive
// with no ordering or conflict checks, so a late stale update overwrites newer state.
type Collection[T any] struct {
	key    func(T) string
	logger *logrus.Entry

	mu        sync.RWMutex
	items     []T
	subs      []Subscription
	listeners []func([]T)
}

func NewCollection[T any](name string, key func(T) string, logger *logrus.Logger) *Collection[T] {
	if logger == nil {
		logger = logrus.New()
	}
	return &Collection[T]{
		key:    key,
		logger: logger.WithField("collection", name),
	}
}

// Load replaces the local rows with the loader's result.
func (c *Collection[T]) Load(ctx context.Context, loader func(context.Context) ([]T, error)) error {
	rows, err := loader(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("load")
		return err
	}
	c.mu.Lock()
	c.items = slices.Clone(rows)
	c.mu.Unlock()
	c.emit()
	return nil
}

// Watch subscribes to the feed and merges every change into the collection until Close.
func (c *Collection[T]) Watch(ctx context.Context, feed Feed, filter domain.ChangeFilter) error {
	sub, err := feed.Subscribe(ctx, filter, func(change domain.Change) {
		if err := c.Apply(change); err != nil {
			c.logger.WithError(err).WithField("type", change.Type).Warn("apply change")
		}
	})
	if err != nil {
		c.logger.WithError(err).WithField("table", filter.Table).Warn("subscribe")
		return err
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

// Apply merges one change: INSERT prepends unless the key is present, UPDATE replaces
// or prepends, DELETE removes.
func (c *Collection[T]) Apply(change domain.Change) error {
	var row T
	if err := change.Decode(&row); err != nil {
		return err
	}
	k := c.key(row)
	if k == "" {
		return fmt.Errorf("%s change without key", change.Type)
	}

	c.mu.Lock()
	idx := slices.IndexFunc(c.items, func(item T) bool { return c.key(item) == k })
	switch change.Type {
	case domain.ChangeInsert:
		if idx >= 0 {
			c.mu.Unlock()
			return nil
		}
		c.items = slices.Insert(c.items, 0, row)
	case domain.ChangeUpdate:
		if idx >= 0 {
			c.items[idx] = row
		} else {
			c.items = slices.Insert(c.items, 0, row)
		}
	case domain.ChangeDelete:
		if idx < 0 {
			c.mu.Unlock()
			return nil
		}
		c.items = slices.Delete(c.items, idx, idx+1)
	default:
		c.mu.Unlock()
		return fmt.Errorf("unknown change type %q", change.Type)
	}
	c.mu.Unlock()

	c.emit()
	return nil
}

// Items returns a copy of the current rows.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// OnChange registers fn to be called with a snapshot after every modification.
func (c *Collection[T]) OnChange(fn func([]T)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Close unsubscribes from every feed.
func (c *Collection[T]) Close() error {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Collection[T]) emit() {
	c.mu.RLock()
	listeners := slices.Clone(c.listeners)
	snapshot := slices.Clone(c.items)
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Jobs, Proposals and Messages build collections keyed by row id.
func Jobs(logger *logrus.Logger) *Collection[domain.Job] {
	return NewCollection("jobs", func(j domain.Job) string { return j.ID }, logger)
}

func Proposals(logger *logrus.Logger) *Collection[domain.Proposal] {
	return NewCollection("proposals", func(p domain.Proposal) string { return p.ID }, logger)
}

func Messages(logger *logrus.Logger) *Collection[domain.Message] {
	return NewCollection("messages", func(m domain.Message) string { return m.ID }, logger)
}
