// Package changefeed delivers row-level change notifications pushed by the
// database. Tables of interest carry an AFTER INSERT/UPDATE/DELETE trigger
// that emits a pg_notify payload on the row_changes channel; the Listener
// holds one dedicated connection, decodes payloads, and fans them out to
// table-scoped subscriptions. Delivery within one table follows publish
// order; no ordering is guaranteed across tables.
package changefeed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"maintops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Action identifies the kind of row change.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	// ActionAll subscribes to every action on a table.
	ActionAll Action = "*"
)

// notifyChannel is the Postgres NOTIFY channel the triggers publish on.
const notifyChannel = "row_changes"

// subscriptionBuffer is the per-subscription channel depth. A slow consumer
// loses changes past this depth (logged) rather than stalling the feed.
const subscriptionBuffer = 256

// Change is one decoded row-change payload.
type Change struct {
	Table  string          `json:"table"`
	Action Action          `json:"action"`
	New    json.RawMessage `json:"new,omitempty"`
	Old    json.RawMessage `json:"old,omitempty"`
}

// DecodeNew unmarshals the new row image into v.
func (c Change) DecodeNew(v any) error {
	return json.Unmarshal(c.New, v)
}

// DecodeOld unmarshals the old row image into v.
func (c Change) DecodeOld(v any) error {
	return json.Unmarshal(c.Old, v)
}

// Filter narrows a subscription to matching changes. A nil Filter matches
// everything for the subscribed (table, action) pair.
type Filter func(Change) bool

// Subscription receives changes on C until Unsubscribe is called.
type Subscription struct {
	C <-chan Change

	id     uint64
	table  string
	action Action
	filter Filter
	ch     chan Change
}

// Listener owns the notification connection and the subscription registry.
type Listener struct {
	pool *pgxpool.Pool
	log  *logger.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
}

// NewListener creates a Listener. Run must be called before changes flow.
func NewListener(pool *pgxpool.Pool, log *logger.Logger) *Listener {
	return &Listener{
		pool: pool,
		log:  log,
		subs: make(map[uint64]*Subscription),
	}
}

// Subscribe registers interest in changes for one table. action may be
// ActionAll; filter may be nil. The caller must Unsubscribe when done.
func (l *Listener) Subscribe(table string, action Action, filter Filter) *Subscription {
	ch := make(chan Change, subscriptionBuffer)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	sub := &Subscription{
		C:      ch,
		id:     l.nextID,
		table:  table,
		action: action,
		filter: filter,
		ch:     ch,
	}
	l.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (l *Listener) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.subs[sub.id]; !ok {
		return
	}
	delete(l.subs, sub.id)
	close(sub.ch)
}

// Run listens for notifications until ctx is cancelled, reconnecting with
// backoff on connection loss.
func (l *Listener) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.log.Error("changefeed connection lost", "error", err, "retry_in", backoff.String())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	l.log.Info("changefeed listening", "channel", notifyChannel)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var change Change
		if err := json.Unmarshal([]byte(notification.Payload), &change); err != nil {
			l.log.Error("changefeed payload decode failed", "error", err)
			continue
		}

		l.dispatch(change)
	}
}

func (l *Listener) dispatch(change Change) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, sub := range l.subs {
		if sub.table != change.Table {
			continue
		}
		if sub.action != ActionAll && sub.action != change.Action {
			continue
		}
		if sub.filter != nil && !sub.filter(change) {
			continue
		}

		select {
		case sub.ch <- change:
		default:
			l.log.Warn("changefeed subscriber buffer full, dropping change",
				"table", change.Table, "action", string(change.Action))
		}
	}
}
