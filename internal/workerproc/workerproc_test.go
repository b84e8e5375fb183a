package workerproc

import (
	"context"
	"errors"
	"testing"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/extraction"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/queue"
)

type recordingProcessor struct {
	taskID    string
	requestID string
	err       error
}

func (p *recordingProcessor) ProcessTask(ctx context.Context, taskID string) error {
	p.taskID = taskID
	p.requestID = extraction.RequestIDFromContext(ctx)
	return p.err
}

func TestParseMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want func(error) bool
	}{
		{"empty", "  ", func(err error) bool { _, ok := err.(ErrEmptyBody); return ok }},
		{"bad json", "{nope", func(err error) bool { _, ok := err.(ErrDecode); return ok }},
		{"missing id", `{"requestId":"r1","version":1}`, func(err error) bool { _, ok := err.(ErrMissingTaskID); return ok }},
		{"future version", `{"taskId":"t1","version":9}`, func(err error) bool { _, ok := err.(ErrUnsupportedVersion); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseMessage(tt.body)
			if !tt.want(err) {
				t.Fatalf("unexpected error %T %v", err, err)
			}
			if !Unrecoverable(err) {
				t.Fatalf("expected %v to be unrecoverable", err)
			}
		})
	}
}

func TestHandleMessagePropagatesRequestID(t *testing.T) {
	body, _ := queue.EncodeMessage(queue.Message{TaskID: "t1", RequestID: "req-1", Version: queue.MessageVersion})
	p := &recordingProcessor{}
	if err := HandleMessage(context.Background(), p, string(body)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if p.taskID != "t1" || p.requestID != "req-1" {
		t.Fatalf("unexpected processor call %+v", p)
	}
}

func TestHandleMessageWrapsProcessError(t *testing.T) {
	body, _ := queue.EncodeMessage(queue.Message{TaskID: "t2"})
	p := &recordingProcessor{err: extraction.ErrNotFound}
	err := HandleMessage(context.Background(), p, string(body))
	var procErr ErrProcess
	if !errors.As(err, &procErr) || procErr.TaskID != "t2" {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if !Unrecoverable(err) {
		t.Fatal("missing task should not be retried")
	}
	if Unrecoverable(ErrProcess{TaskID: "t3", Err: errors.New("db down")}) {
		t.Fatal("transient failure should be retried")
	}
}

func TestComputeMeta(t *testing.T) {
	if meta := ComputeMeta(""); meta.BodyLen != 0 || meta.BodySHA != "" {
		t.Fatalf("unexpected empty meta %+v", meta)
	}
	if meta := ComputeMeta("abc"); meta.BodyLen != 3 || len(meta.BodySHA) != 64 {
		t.Fatalf("unexpected meta %+v", meta)
	}
}
