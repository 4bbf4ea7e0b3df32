package reconcile

import "testing"

type note struct {
	ID   string
	Body string
}

func (n note) RowID() string { return n.ID }

func TestConfirmReplacesProvisional(t *testing.T) {
	v := NewView[note]()

	v.StageLocal("corr-1", note{Body: "pending save"})
	if got := v.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}

	v.Confirm("corr-1", note{ID: "n1", Body: "saved"})

	if got := v.Len(); got != 1 {
		t.Fatalf("Len after confirm = %d, want 1", got)
	}
	entry, ok := v.Get("n1")
	if !ok {
		t.Fatal("confirmed row not found")
	}
	if entry.Body != "saved" {
		t.Fatalf("Body = %q, want %q", entry.Body, "saved")
	}
}

func TestApplyRemoteRetiresBoundProvisional(t *testing.T) {
	v := NewView[note]()

	v.StageLocal("corr-1", note{Body: "optimistic"})
	v.Bind("corr-1", "n1")
	v.ApplyRemote(note{ID: "n1", Body: "from changefeed"})

	if got := v.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1 (provisional should be retired)", got)
	}
	entry, _ := v.Get("n1")
	if entry.Body != "from changefeed" {
		t.Fatalf("Body = %q, want changefeed copy", entry.Body)
	}
}

func TestApplyRemoteLastWriterWins(t *testing.T) {
	v := NewView[note]()

	v.ApplyRemote(note{ID: "n1", Body: "first"})
	v.ApplyRemote(note{ID: "n1", Body: "second"})

	entry, _ := v.Get("n1")
	if entry.Body != "second" {
		t.Fatalf("Body = %q, want %q", entry.Body, "second")
	}
	if got := v.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}

func TestDiscardDropsFailedWrite(t *testing.T) {
	v := NewView[note]()

	v.StageLocal("corr-1", note{Body: "doomed"})
	v.Discard("corr-1")

	if got := v.Len(); got != 0 {
		t.Fatalf("Len = %d, want 0", got)
	}
}

func TestDeleteRemovesFromSnapshotOrder(t *testing.T) {
	v := NewView[note]()

	v.ApplyRemote(note{ID: "n1", Body: "a"})
	v.ApplyRemote(note{ID: "n2", Body: "b"})
	v.ApplyRemote(note{ID: "n3", Body: "c"})
	v.Delete("n2")
	v.Delete("n2") // repeat delete is a no-op

	snap := v.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(snap))
	}
	if snap[0].ID != "n1" || snap[1].ID != "n3" {
		t.Fatalf("Snapshot order = [%s %s], want [n1 n3]", snap[0].ID, snap[1].ID)
	}
}

func TestSnapshotIncludesUnboundProvisional(t *testing.T) {
	v := NewView[note]()

	v.ApplyRemote(note{ID: "n1", Body: "confirmed"})
	v.StageLocal("corr-9", note{Body: "in flight"})

	snap := v.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(snap))
	}
	if snap[0].ID != "n1" {
		t.Fatalf("confirmed rows must come first, got %q", snap[0].ID)
	}
}
