package health

import (
	"context"
	"errors"
	"testing"
)

type pingFunc func(context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestStatus(t *testing.T) {
	for _, tt := range []struct {
		name string
		db   Pinger
		ok   bool
		want string
	}{
		{"memory", nil, true, "memory"},
		{"reachable", pingFunc(func(context.Context) error { return nil }), true, "ok"},
		{"down", pingFunc(func(context.Context) error { return errors.New("refused") }), false, "unreachable"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := NewService(tt.db).Status(context.Background())
			if r.OK != tt.ok || r.Database != tt.want {
				t.Fatalf("unexpected report %+v", r)
			}
		})
	}
}
