// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package services

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// CloserService ties a resource that is opened at startup (the BadgerDB
// conversation store, the pub/sub notifier) to the tree's lifetime: it idles
// until shutdown, then calls Close exactly once.
type CloserService struct {
	name   string
	closer io.Closer
	once   sync.Once
}

// NewCloserService wraps closer under name.
func NewCloserService(name string, closer io.Closer) *CloserService {
	return &CloserService{name: name, closer: closer}
}

// Serve implements suture.Service.
func (c *CloserService) Serve(ctx context.Context) error {
	<-ctx.Done()

	var err error
	c.once.Do(func() { err = c.closer.Close() })
	if err != nil {
		return fmt.Errorf("close %s: %w", c.name, err)
	}
	return ctx.Err()
}

func (c *CloserService) String() string {
	return c.name
}
