package autosend

import (
	"strings"
	"testing"
)

func TestTriggerFor(t *testing.T) {
	cases := []struct {
		from, to string
		want     Trigger
		ok       bool
	}{
		{"new", "assigned", TriggerAssigned, true},
		{"in_progress", "completed", TriggerCompleted, true},
		{"ready_for_review", "COMPLETED", TriggerCompleted, true},
		{"assigned", "assigned", "", false},
		{"completed", "completed", "", false},
		{"assigned", "in_progress", "", false},
		{"new", "cancelled", "", false},
	}
	for _, tc := range cases {
		got, ok := TriggerFor(tc.from, tc.to)
		if ok != tc.ok || got != tc.want {
			t.Errorf("TriggerFor(%q, %q) = (%q, %v), want (%q, %v)", tc.from, tc.to, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRenderMessageFillsPlaceholders(t *testing.T) {
	content, ok := RenderMessage(TriggerAssigned, "Maria", "Leaking faucet")
	if !ok {
		t.Fatal("no template for assigned trigger")
	}
	want := "Hi Maria, a technician has been assigned to your request 'Leaking faucet'."
	if content != want {
		t.Fatalf("got %q, want %q", content, want)
	}

	content, ok = RenderMessage(TriggerCompleted, "Maria", "Leaking faucet")
	if !ok {
		t.Fatal("no template for completed trigger")
	}
	if !strings.Contains(content, "'Leaking faucet'") || strings.Contains(content, "{{") {
		t.Fatalf("unfilled template: %q", content)
	}
}

func TestFillTemplateLeavesUnknownPlaceholders(t *testing.T) {
	got := FillTemplate("Hello {{name}}, see {{missing}}", map[string]string{"name": "Sam"})
	if got != "Hello Sam, see {{missing}}" {
		t.Fatalf("got %q", got)
	}
}
