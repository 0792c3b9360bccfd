package events

import (
	"testing"
	"time"
)

func TestEmitSurvivesPanickingHandler(t *testing.T) {
	bus := NewEventBus()

	delivered := make(chan interface{}, 1)
	bus.On("list.deleted", func(interface{}) {
		panic("handler exploded")
	})
	bus.On("list.deleted", func(data interface{}) {
		delivered <- data
	})

	bus.Emit("list.deleted", "list-1")

	select {
	case data := <-delivered:
		if data != "list-1" {
			t.Fatalf("unexpected payload: %v", data)
		}
	case <-time.After(time.Second):
		t.Fatal("second handler never ran")
	}
}

func TestEmitWithoutHandlersIsNoop(t *testing.T) {
	bus := NewEventBus()
	bus.Emit("users.created", "user-1")
}
