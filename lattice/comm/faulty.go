// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package comm

import (
	"context"
	"fmt"
	"time"

	"github.com/ajroetker/go-lattice/lattice"
)

// Faulty wraps a Transport to inject failures and delays.
type Faulty struct {
	Transport

	// FailSend and FailRecv, when set, return the error the transfer should
	// complete with, or nil to let it through.
	FailSend func(dim int, dir lattice.Direction) error
	FailRecv func(dim int, dir lattice.Direction) error
	// Delay holds back completion of a receive.
	Delay func(dim int, dir lattice.Direction) time.Duration
}

func (f *Faulty) Send(ctx context.Context, dim int, dir lattice.Direction, data []byte) (Request, error) {
	if f.FailSend != nil {
		if err := f.FailSend(dim, dir); err != nil {
			return Completed(fmt.Errorf("%w: %w", lattice.ErrTransport, err)), nil
		}
	}
	return f.Transport.Send(ctx, dim, dir, data)
}

func (f *Faulty) Recv(ctx context.Context, dim int, dir lattice.Direction, data []byte) (Request, error) {
	if f.FailRecv != nil {
		if err := f.FailRecv(dim, dir); err != nil {
			return Completed(fmt.Errorf("%w: %w", lattice.ErrTransport, err)), nil
		}
	}
	req, err := f.Transport.Recv(ctx, dim, dir, data)
	if err != nil || f.Delay == nil {
		return req, err
	}
	d := f.Delay(dim, dir)
	if d <= 0 {
		return req, nil
	}
	return &delayed{Request: req, delay: d, start: time.Now()}, nil
}

// delayed completes no earlier than delay after start.
type delayed struct {
	Request
	delay time.Duration
	start time.Time
}

func (d *delayed) Test() bool {
	return time.Since(d.start) >= d.delay && d.Request.Test()
}

func (d *delayed) Wait(ctx context.Context) error {
	if err := d.Request.Wait(ctx); err != nil {
		return err
	}
	wait := time.NewTimer(time.Until(d.start.Add(d.delay)))
	defer wait.Stop()
	select {
	case <-wait.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", lattice.ErrTransport, ctx.Err())
	}
}
