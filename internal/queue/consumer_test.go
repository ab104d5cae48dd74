package queue

import (
	"context"
	"errors"
	"testing"
)

func TestHandleDeliveryDecodesEvent(t *testing.T) {
	var got RankAssignedEvent
	body := []byte(`{"registrant_id":4,"name":"Ada","rank":2,"tier_id":"combo_coffee_burger"}`)
	err := HandleDelivery(context.Background(), body, func(_ context.Context, ev RankAssignedEvent) error {
		got = ev
		return nil
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got.RegistrantID != 4 || got.Rank != 2 || got.TierID != "combo_coffee_burger" {
		t.Fatalf("decoded event = %+v", got)
	}
}

func TestHandleDeliveryRejectsBadPayloads(t *testing.T) {
	called := false
	h := func(context.Context, RankAssignedEvent) error { called = true; return nil }
	for _, body := range []string{`not json`, `{"registrant_id":0,"rank":1}`, `{"registrant_id":3,"rank":0}`} {
		if err := HandleDelivery(context.Background(), []byte(body), h); err == nil {
			t.Errorf("payload %q accepted", body)
		}
	}
	if called {
		t.Fatal("handler called for invalid payload")
	}
}

func TestHandleDeliveryPropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	err := HandleDelivery(context.Background(), []byte(`{"registrant_id":1,"rank":1}`),
		func(context.Context, RankAssignedEvent) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}
