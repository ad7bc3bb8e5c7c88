package events

import (
	"context"
	"errors"
	"testing"

	"github.com/thenoetrevino/tablero/internal/models"
)

type failingPublisher struct {
	attempts int
}

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.attempts++
	return errors.New("simulated send failure")
}

func TestEmit_Records(t *testing.T) {
	rec := &Recorder{}
	card := &models.Card{ID: 3, ColumnID: 2, Title: "a", Order: 1}

	Emit(context.Background(), rec, CardMoved, 1, CardMovedPayload{
		Card: card, FromColumnID: 1, ToColumnID: 2, FromOrder: 0, ToOrder: 1,
	})

	event, ok := rec.Last()
	if !ok {
		t.Fatal("expected an event")
	}
	if event.Kind != CardMoved || event.BoardID != 1 {
		t.Errorf("unexpected event: %+v", event)
	}

	var payload CardMovedPayload
	if err := event.Decode(&payload); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if payload.Card.ID != 3 || payload.ToColumnID != 2 || payload.ToOrder != 1 {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestEmit_NilPublisher(t *testing.T) {
	// must not panic
	Emit(context.Background(), nil, ChatMessage, 1, nil)
}

func TestEmit_SwallowsPublishErrors(t *testing.T) {
	p := &failingPublisher{}
	Emit(context.Background(), p, ColumnCreated, 1, ColumnPayload{})
	if p.attempts != 1 {
		t.Errorf("expected one attempt, got %d", p.attempts)
	}
}

func TestEmit_UnencodablePayload(t *testing.T) {
	rec := &Recorder{}
	Emit(context.Background(), rec, ChatMessage, 1, make(chan int))
	if len(rec.Events()) != 0 {
		t.Error("unencodable payload should not be published")
	}
}

func TestRecorder_SequenceAndReset(t *testing.T) {
	rec := &Recorder{}
	ctx := context.Background()
	Emit(ctx, rec, CardCreated, 1, CardPayload{})
	Emit(ctx, rec, CardUpdated, 1, CardPayload{})

	events := rec.Events()
	if len(events) != 2 || events[0].Seq != 1 || events[1].Seq != 2 {
		t.Errorf("unexpected events: %+v", events)
	}

	rec.Reset()
	if _, ok := rec.Last(); ok {
		t.Error("expected no events after Reset")
	}
}

func TestKinds_Unique(t *testing.T) {
	if len(Kinds) != 11 {
		t.Errorf("expected 11 kinds, got %d", len(Kinds))
	}
	seen := make(map[Kind]bool)
	for _, k := range Kinds {
		if seen[k] {
			t.Errorf("duplicate kind %s", k)
		}
		seen[k] = true
	}
}
