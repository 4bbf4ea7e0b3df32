package autosend

import "strings"

// Trigger identifies which lifecycle transition staged a message.
type Trigger string

const (
	TriggerAssigned  Trigger = "assigned"
	TriggerCompleted Trigger = "completed"
)

var templates = map[Trigger]string{
	TriggerAssigned:  "Hi {{tenant_name}}, a technician has been assigned to your request '{{work_order_title}}'.",
	TriggerCompleted: "Good news! The work for '{{work_order_title}}' has been marked as complete.",
}

// TriggerFor maps a status transition to a trigger. Only transitions INTO
// assigned or completed stage a message; a write that leaves the status
// unchanged does not.
func TriggerFor(oldStatus, newStatus string) (Trigger, bool) {
	from := strings.ToLower(oldStatus)
	to := strings.ToLower(newStatus)
	if from == to {
		return "", false
	}
	switch to {
	case "assigned":
		return TriggerAssigned, true
	case "completed":
		return TriggerCompleted, true
	}
	return "", false
}

// FillTemplate substitutes {{key}} placeholders. Unknown placeholders are
// left in place so a bad template is visible in preview rather than silently
// blanked.
func FillTemplate(tmpl string, vars map[string]string) string {
	out := tmpl
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}

// RenderMessage produces the outbound content for one trigger.
func RenderMessage(trigger Trigger, tenantName, workOrderTitle string) (string, bool) {
	tmpl, ok := templates[trigger]
	if !ok {
		return "", false
	}
	return FillTemplate(tmpl, map[string]string{
		"tenant_name":      tenantName,
		"work_order_title": workOrderTitle,
	}), true
}
