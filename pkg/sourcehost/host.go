// Luminary: A streamlined CLI tool for searching and downloading manga.
// Copyright (C) 2025 Luca M. Schmidt (LuMiSxh)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package sourcehost implements the Extension Host: it owns the set of
// loaded source.Adapter values keyed by source id, serializes interactions
// with them through a single dispatcher goroutine reading a bounded inbound
// channel, and bounds per-call latency with a deadline. Grounded on the
// teacher's pkg/provider.Registry (the adapter map) and internal/rpc
// (request/reply-per-call dispatch), generalized from net/rpc services into
// the spec's channel-and-worker-pool model.
package sourcehost

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/applog"
	"tanoshi/pkg/core"
	"tanoshi/pkg/source"
)

const (
	defaultInboundCapacity = 256
	defaultDeadline        = 30 * time.Second
	defaultPoolSize        = 8
)

// Options configures a Host.
type Options struct {
	Logger          applog.Logger
	Deadline        time.Duration // per-call deadline, default 30s
	InboundCapacity int           // bounded inbound channel capacity
	PoolSize        int           // max concurrent adapter fetch calls
	PluginDir       string
	RepositoryURL   string
}

func (o *Options) fillDefaults() {
	if o.Logger == nil {
		o.Logger = applog.Noop()
	}
	if o.Deadline <= 0 {
		o.Deadline = defaultDeadline
	}
	if o.InboundCapacity <= 0 {
		o.InboundCapacity = defaultInboundCapacity
	}
	if o.PoolSize <= 0 {
		o.PoolSize = defaultPoolSize
	}
}

// Host is the single handle every service holds; it never exposes the
// adapter map directly.
type Host struct {
	opts Options
	log  applog.Logger

	inbound chan *command
	sem     *semaphore.Weighted

	// adapters is owned exclusively by the dispatcher goroutine (run via
	// Run); nothing outside of runDispatcher may read or write it.
	adapters map[int64]*slot
}

// New builds a Host. Call Run in its own goroutine (or via an errgroup)
// before issuing any request.
func New(opts Options) *Host {
	opts.fillDefaults()
	return &Host{
		opts:     opts,
		log:      opts.Logger,
		inbound:  make(chan *command, opts.InboundCapacity),
		sem:      semaphore.NewWeighted(int64(opts.PoolSize)),
		adapters: make(map[int64]*slot),
	}
}

// Run is the dispatcher loop. It owns the adapter map for its entire
// lifetime and never locks it: state-mutating commands (install, uninstall,
// unload, insert, set-preferences) execute inline here, serializing them
// against any in-flight call for that source by simply not reading the next
// command until they finish; fetch commands resolve the adapter and hand
// off to the bounded worker pool so unrelated sources — and repeated calls
// to the same source — proceed concurrently.
func (h *Host) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-h.inbound:
			if cmd.kind.isStateOp() {
				h.executeStateOp(cmd)
				continue
			}
			h.dispatchFetch(cmd)
		}
	}
}

// send enqueues cmd onto the bounded inbound channel, respecting the
// caller's context for backpressure, then waits for its reply respecting
// the same context. If ctx is cancelled while a fetch is in flight, the
// in-flight worker is abandoned (not killed) per the per-request
// cancellation semantics in the concurrency model.
func (h *Host) send(cmd *command) (interface{}, error) {
	select {
	case h.inbound <- cmd:
	case <-cmd.ctx.Done():
		return nil, apperr.Track(cmd.ctx.Err()).AsTimeout().Error()
	}

	select {
	case r := <-cmd.reply:
		return r.value, r.err
	case <-cmd.ctx.Done():
		return nil, apperr.Track(cmd.ctx.Err()).AsTimeout().Error()
	}
}

func (h *Host) resolve(id int64) (*slot, error) {
	s, ok := h.adapters[id]
	if !ok || s.state == stateEmpty {
		return nil, apperr.Newf("source %d not loaded", id).AsNotFound().Error()
	}
	return s, nil
}

// dispatchFetch resolves the adapter inline (cheap map read, no lock
// needed — only the dispatcher goroutine touches the map) then spawns a
// bounded worker goroutine to perform the actual call under a deadline.
func (h *Host) dispatchFetch(cmd *command) {
	s, err := h.resolve(cmd.sourceID)
	if err != nil {
		cmd.reply <- result{err: err}
		return
	}
	adapter := s.adapter

	go h.runFetch(cmd, adapter)
}

func (h *Host) runFetch(cmd *command, adapter source.Adapter) {
	if err := h.sem.Acquire(cmd.ctx, 1); err != nil {
		cmd.reply <- result{err: apperr.Track(err).AsTimeout().Error()}
		return
	}
	defer h.sem.Release(1)

	deadline := h.opts.Deadline
	callCtx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		value, err := h.invoke(callCtx, cmd, adapter)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		cmd.reply <- r
	case <-callCtx.Done():
		h.log.Warn("source %d: operation timed out after %s", cmd.sourceID, deadline)
		cmd.reply <- result{err: apperr.Newf("source %d call exceeded deadline", cmd.sourceID).AsTimeout().Error()}
		// done's goroutine is left to finish in the background; its result
		// is discarded (the channel is buffered so it never leaks).
	}
}

func (h *Host) invoke(ctx context.Context, cmd *command, adapter source.Adapter) (interface{}, error) {
	switch cmd.kind {
	case opPopular:
		return adapter.ListPopular(ctx, cmd.page)
	case opLatest:
		return adapter.ListLatest(ctx, cmd.page)
	case opSearch:
		return adapter.Search(ctx, cmd.page, cmd.query, cmd.filters)
	case opMangaDetail:
		return adapter.MangaDetail(ctx, cmd.path)
	case opChapters:
		return adapter.Chapters(ctx, cmd.path)
	case opPages:
		return adapter.Pages(ctx, cmd.path)
	case opImageBytes:
		data, contentType, err := adapter.ImageBytes(ctx, cmd.url)
		if err != nil {
			return nil, err
		}
		return imageBytesResult{Data: data, ContentType: contentType}, nil
	case opFilterList:
		return adapter.FilterList(), nil
	case opGetPreferences:
		return adapter.Preferences(), nil
	default:
		return nil, apperr.Newf("unknown fetch op %d", cmd.kind).AsAdapterFailure().Error()
	}
}

type imageBytesResult struct {
	Data        []byte
	ContentType string
}

// --- Public API ---

func (h *Host) Popular(ctx context.Context, id int64, page int) ([]core.Manga, error) {
	cmd := newCommand(ctx, opPopular, id)
	cmd.page = page
	v, err := h.send(cmd)
	if err != nil {
		return nil, err
	}
	return v.([]core.Manga), nil
}

func (h *Host) Latest(ctx context.Context, id int64, page int) ([]core.Manga, error) {
	cmd := newCommand(ctx, opLatest, id)
	cmd.page = page
	v, err := h.send(cmd)
	if err != nil {
		return nil, err
	}
	return v.([]core.Manga), nil
}

func (h *Host) Search(ctx context.Context, id int64, page int, query string, filters source.SearchFilters) ([]core.Manga, error) {
	cmd := newCommand(ctx, opSearch, id)
	cmd.page, cmd.query, cmd.filters = page, query, filters
	v, err := h.send(cmd)
	if err != nil {
		return nil, err
	}
	return v.([]core.Manga), nil
}

func (h *Host) MangaDetail(ctx context.Context, id int64, path string) (*core.Manga, error) {
	cmd := newCommand(ctx, opMangaDetail, id)
	cmd.path = path
	v, err := h.send(cmd)
	if err != nil {
		return nil, err
	}
	return v.(*core.Manga), nil
}

func (h *Host) Chapters(ctx context.Context, id int64, path string) ([]core.Chapter, error) {
	cmd := newCommand(ctx, opChapters, id)
	cmd.path = path
	v, err := h.send(cmd)
	if err != nil {
		return nil, err
	}
	return v.([]core.Chapter), nil
}

func (h *Host) Pages(ctx context.Context, id int64, path string) ([]source.Page, error) {
	cmd := newCommand(ctx, opPages, id)
	cmd.path = path
	v, err := h.send(cmd)
	if err != nil {
		return nil, err
	}
	return v.([]source.Page), nil
}

// ImageBytes fetches raw image bytes (+ content type) through the owning
// adapter — used for the ExtensionRemote ImageUri variant so adapters can
// inject auth headers the proxy itself doesn't have.
func (h *Host) ImageBytes(ctx context.Context, id int64, url string) ([]byte, string, error) {
	cmd := newCommand(ctx, opImageBytes, id)
	cmd.url = url
	v, err := h.send(cmd)
	if err != nil {
		return nil, "", err
	}
	r := v.(imageBytesResult)
	return r.Data, r.ContentType, nil
}

func (h *Host) FilterList(ctx context.Context, id int64) ([]core.FilterField, error) {
	cmd := newCommand(ctx, opFilterList, id)
	v, err := h.send(cmd)
	if err != nil {
		return nil, err
	}
	return v.([]core.FilterField), nil
}

func (h *Host) GetPreferences(ctx context.Context, id int64) ([]core.PreferenceField, error) {
	cmd := newCommand(ctx, opGetPreferences, id)
	v, err := h.send(cmd)
	if err != nil {
		return nil, err
	}
	return v.([]core.PreferenceField), nil
}

// List, GetSourceInfo and Exists are metadata queries executed inline on the
// dispatcher goroutine (they are state ops) so they never race slot
// mutation.
func (h *Host) List(ctx context.Context) ([]core.SourceInfo, error) {
	cmd := newCommand(ctx, opList, 0)
	v, err := h.send(cmd)
	if err != nil {
		return nil, err
	}
	return v.([]core.SourceInfo), nil
}

func (h *Host) GetSourceInfo(ctx context.Context, id int64) (core.SourceInfo, error) {
	cmd := newCommand(ctx, opInfo, id)
	v, err := h.send(cmd)
	if err != nil {
		return core.SourceInfo{}, err
	}
	return v.(core.SourceInfo), nil
}

func (h *Host) Exists(ctx context.Context, id int64) bool {
	_, err := h.GetSourceInfo(ctx, id)
	return err == nil
}
