// Package sloghooks logs engine events through log/slog. Item and remote
// events can be sampled to avoid floods; operation errors are always logged.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/unkn0wn-root/rescache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	ItemEvery   uint64
	RemoteEvery uint64
	// Optional id redactor. Defaults to SHA-256 prefix. Primary keys can
	// carry user data (emails, usernames), so raw ids stay out of logs.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	itemCtr   atomic.Uint64
	remoteCtr atomic.Uint64
}

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

// Handler returns the bus handler. Subscribe it with the empty name so it
// sees every event; read events (before:*/after:*) are not logged.
func (h *Hooks) Handler() rescache.Handler {
	return func(ev rescache.Event) {
		if h.l == nil {
			return
		}
		switch {
		case ev.Name == rescache.EventError:
			h.opError(ev)
		case strings.HasPrefix(ev.Name, "item:"):
			h.itemEvent(ev)
		case strings.HasPrefix(ev.Name, "remote:"):
			h.remoteEvent(ev)
		}
	}
}

func (h *Hooks) redact(id string) string {
	if id == "" {
		return ""
	}
	if h.opts.Redact != nil {
		return h.opts.Redact(id)
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) opError(ev rescache.Event) {
	h.l.Error("rescache.op_error",
		"resource", ev.Resource,
		"action", ev.Action,
		"id", h.redact(ev.ID),
		"err", ev.Err)
}

func (h *Hooks) itemEvent(ev rescache.Event) {
	if !sample(h.opts.ItemEvery, &h.itemCtr) {
		return
	}
	h.l.Debug("rescache.item_event",
		"event", ev.Name,
		"resource", ev.Resource,
		"id", h.redact(ev.ID),
		"optimistic", ev.Optimistic)
}

func (h *Hooks) remoteEvent(ev rescache.Event) {
	if !sample(h.opts.RemoteEvery, &h.remoteCtr) {
		return
	}
	h.l.Info("rescache.remote_change",
		"event", ev.Name,
		"resource", ev.Resource,
		"id", h.redact(ev.ID))
}
