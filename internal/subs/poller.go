// Package subs implements the Subscription Multiplexer (C12, spec.md
// §4.11): a data source that turns periodic table re-fetches into change
// events, and a graphql-transport-ws websocket handler that multiplexes
// any number of concurrent subscribe operations over one connection.
package subs

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"time"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/gqlgen"
	"github.com/qbloq/dbgraphql/internal/sdata"
)

const defaultPollInterval = 2 * time.Second

// Poller implements gqlgen.Subscriber by periodically re-running a
// table's full fetch and diffing the result against the row set it last
// observed — the same hash-and-compare technique core/subs.go uses
// (subNotifyMemberEx's sha256 content hash, skipped when unchanged),
// reworked here from a per-member query-result hash into a per-row
// identity diff so INSERT/UPDATE/DELETE can be told apart.
//
// This is a deliberate stand-in for a real WAL/logical-replication change
// feed (spec.md §9 Open Question: "Subscription content placeholder");
// a production deployment would replace it with a listener against
// Postgres's logical replication slot without changing the Subscriber
// boundary this package exposes.
type Poller struct {
	fetcher  gqlgen.Fetcher
	model    sdata.Model
	interval time.Duration
}

// NewPoller builds a Poller reading model's tables through fetcher every
// interval (defaultPollInterval if interval <= 0).
func NewPoller(fetcher gqlgen.Fetcher, model sdata.Model, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{fetcher: fetcher, model: model, interval: interval}
}

// Subscribe implements gqlgen.Subscriber. The returned channel closes
// when ctx is cancelled.
func (p *Poller) Subscribe(ctx context.Context, table string) (<-chan gqlgen.ChangeEvent, error) {
	t, ok := p.model.Table(table)
	if !ok {
		return nil, apperr.New(apperr.Validation, "unknown table %q", table)
	}

	out := make(chan gqlgen.ChangeEvent, 8)
	go p.run(ctx, t, out)
	return out, nil
}

type rowSnapshot struct {
	hash [sha256.Size]byte
	row  map[string]interface{}
}

func (p *Poller) run(ctx context.Context, t sdata.Table, out chan<- gqlgen.ChangeEvent) {
	defer close(out)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	pks := t.PrimaryKeys()
	seen := map[string]rowSnapshot{}
	baseline := true

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		rows, err := p.fetcher.FetchList(ctx, t.Name, gqlgen.QueryArgs{})
		if err != nil {
			if !p.emit(ctx, out, gqlgen.ChangeEvent{Operation: "ERROR", Table: t.Name, Timestamp: nowRFC3339()}) {
				return
			}
			continue
		}

		current := make(map[string]rowSnapshot, len(rows))
		for _, row := range rows {
			key := rowKey(pks, row)
			current[key] = rowSnapshot{hash: hashRow(row), row: row}
		}

		if baseline {
			// The first poll establishes the starting row set; a
			// subscription observes changes from "now" forward, not a
			// replay of every existing row.
			seen = current
			baseline = false
			continue
		}

		for key, snap := range current {
			prev, existed := seen[key]
			switch {
			case !existed:
				if !p.emit(ctx, out, gqlgen.ChangeEvent{Operation: "INSERT", Table: t.Name, Timestamp: nowRFC3339(), New: snap.row}) {
					return
				}
			case prev.hash != snap.hash:
				if !p.emit(ctx, out, gqlgen.ChangeEvent{Operation: "UPDATE", Table: t.Name, Timestamp: nowRFC3339(), Old: prev.row, New: snap.row}) {
					return
				}
			}
		}
		for key, prev := range seen {
			if _, ok := current[key]; !ok {
				if !p.emit(ctx, out, gqlgen.ChangeEvent{Operation: "DELETE", Table: t.Name, Timestamp: nowRFC3339(), Old: prev.row}) {
					return
				}
			}
		}
		seen = current
	}
}

// emit delivers ev, honoring ctx cancellation while blocked on a full
// channel. Returns false if ctx was cancelled first.
func (p *Poller) emit(ctx context.Context, out chan<- gqlgen.ChangeEvent, ev gqlgen.ChangeEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func rowKey(pks []sdata.Column, row map[string]interface{}) string {
	b, _ := json.Marshal(pkValues(pks, row))
	return string(b)
}

func pkValues(pks []sdata.Column, row map[string]interface{}) []interface{} {
	vals := make([]interface{}, len(pks))
	for i, c := range pks {
		vals[i] = row[c.Name]
	}
	return vals
}

func hashRow(row map[string]interface{}) [sha256.Size]byte {
	b, _ := json.Marshal(row)
	return sha256.Sum256(b)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
