package changefeed

import (
	"encoding/json"
	"testing"

	"maintops_backend/platform/logger"
)

func testListener() *Listener {
	return NewListener(nil, logger.New("test"))
}

func TestDispatchMatchesTableAndAction(t *testing.T) {
	l := testListener()

	workOrders := l.Subscribe("work_orders", ActionUpdate, nil)
	messages := l.Subscribe("messages", ActionAll, nil)
	defer l.Unsubscribe(workOrders)
	defer l.Unsubscribe(messages)

	l.dispatch(Change{Table: "work_orders", Action: ActionUpdate})
	l.dispatch(Change{Table: "work_orders", Action: ActionInsert})
	l.dispatch(Change{Table: "messages", Action: ActionInsert})

	if got := len(workOrders.C); got != 1 {
		t.Fatalf("work_orders subscriber got %d changes, want 1", got)
	}
	if got := len(messages.C); got != 1 {
		t.Fatalf("messages subscriber got %d changes, want 1", got)
	}
}

func TestDispatchAppliesFilter(t *testing.T) {
	l := testListener()

	sub := l.Subscribe("work_orders", ActionUpdate, func(c Change) bool {
		var row struct {
			Status string `json:"status"`
		}
		if err := c.DecodeNew(&row); err != nil {
			return false
		}
		return row.Status == "assigned"
	})
	defer l.Unsubscribe(sub)

	l.dispatch(Change{
		Table:  "work_orders",
		Action: ActionUpdate,
		New:    json.RawMessage(`{"status":"assigned"}`),
	})
	l.dispatch(Change{
		Table:  "work_orders",
		Action: ActionUpdate,
		New:    json.RawMessage(`{"status":"completed"}`),
	})

	if got := len(sub.C); got != 1 {
		t.Fatalf("filtered subscriber got %d changes, want 1", got)
	}

	change := <-sub.C
	var row struct {
		Status string `json:"status"`
	}
	if err := change.DecodeNew(&row); err != nil {
		t.Fatalf("DecodeNew: %v", err)
	}
	if row.Status != "assigned" {
		t.Fatalf("status = %q, want assigned", row.Status)
	}
}

func TestDispatchPreservesOrderPerTable(t *testing.T) {
	l := testListener()

	sub := l.Subscribe("work_orders", ActionAll, nil)
	defer l.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		payload, _ := json.Marshal(map[string]int{"seq": i})
		l.dispatch(Change{Table: "work_orders", Action: ActionInsert, New: payload})
	}

	for want := 0; want < 5; want++ {
		change := <-sub.C
		var row struct {
			Seq int `json:"seq"`
		}
		if err := change.DecodeNew(&row); err != nil {
			t.Fatalf("DecodeNew: %v", err)
		}
		if row.Seq != want {
			t.Fatalf("received seq %d, want %d", row.Seq, want)
		}
	}
}

func TestDispatchDropsWhenBufferFull(t *testing.T) {
	l := testListener()

	sub := l.Subscribe("work_orders", ActionAll, nil)
	defer l.Unsubscribe(sub)

	for i := 0; i < subscriptionBuffer+10; i++ {
		l.dispatch(Change{Table: "work_orders", Action: ActionInsert})
	}

	if got := len(sub.C); got != subscriptionBuffer {
		t.Fatalf("buffered %d changes, want %d", got, subscriptionBuffer)
	}
}

func TestUnsubscribeClosesChannelOnce(t *testing.T) {
	l := testListener()

	sub := l.Subscribe("work_orders", ActionAll, nil)
	l.Unsubscribe(sub)
	l.Unsubscribe(sub) // second call must be a no-op

	if _, open := <-sub.C; open {
		t.Fatal("channel still open after Unsubscribe")
	}

	// dispatch after unsubscribe must not panic on a closed channel
	l.dispatch(Change{Table: "work_orders", Action: ActionInsert})
}
