package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testConfig struct {
	redisURL string
}

func (c testConfig) GetRedisURL() string       { return c.redisURL }
func (c testConfig) GetRedisTLSInsecure() bool { return false }
func (c testConfig) GetAsynqQueueName() string { return "maintops" }
func (c testConfig) GetAsynqConcurrency() int  { return 1 }

func TestClientEnqueueCompensation(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	outboxID := uuid.New()
	if err := client.EnqueueCompensation(context.Background(), outboxID); err != nil {
		t.Fatalf("EnqueueCompensation: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: srv.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks("maintops")
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TaskCompensationDue {
		t.Fatalf("task type = %q, want %q", tasks[0].Type, TaskCompensationDue)
	}

	payload, err := ParseCompensationDuePayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("ParseCompensationDuePayload: %v", err)
	}
	if payload.OutboxID != outboxID.String() {
		t.Fatalf("OutboxID = %q, want %q", payload.OutboxID, outboxID)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}
