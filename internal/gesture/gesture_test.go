package gesture

import "testing"

func TestBusDispatchOrder(t *testing.T) {
	b := NewBus()
	var got []int
	b.Subscribe(Click, func(Event) { got = append(got, 1) })
	b.Subscribe(Click, func(Event) { got = append(got, 2) })
	b.Subscribe(KeyDown, func(Event) { got = append(got, 3) })

	b.Dispatch(Event{Kind: Click})

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("handlers ran as %v, want [1 2]", got)
	}
}

func TestBusCancel(t *testing.T) {
	b := NewBus()
	calls := 0
	cancel := b.Subscribe(KeyDown, func(Event) { calls++ })

	cancel()
	cancel()
	b.Dispatch(Event{Kind: KeyDown})

	if calls != 0 {
		t.Errorf("calls = %d after cancel, want 0", calls)
	}
	if n := b.Len(KeyDown); n != 0 {
		t.Errorf("Len(KeyDown) = %d, want 0", n)
	}
}

func TestBusActivation(t *testing.T) {
	b := NewBus()
	if b.HasBeenActive() {
		t.Fatal("HasBeenActive() = true before any gesture")
	}

	var activeInHandler bool
	b.Subscribe(TouchStart, func(Event) { activeInHandler = b.HasBeenActive() })
	b.Dispatch(Event{Kind: TouchStart})

	if !activeInHandler {
		t.Error("activation was not recorded before handlers ran")
	}
	if !b.HasBeenActive() {
		t.Error("HasBeenActive() = false after a gesture")
	}
}

func TestOnceFiresAtMostOnce(t *testing.T) {
	b := NewBus()
	var seen []Kind
	sub := Once(b, func(e Event) { seen = append(seen, e.Kind) }, Click, TouchStart, KeyDown)

	b.Dispatch(Event{Kind: KeyDown})
	b.Dispatch(Event{Kind: Click})
	b.Dispatch(Event{Kind: TouchStart})

	if len(seen) != 1 || seen[0] != KeyDown {
		t.Errorf("seen = %v, want [keydown]", seen)
	}
	if !sub.Fired() {
		t.Error("Fired() = false after a gesture")
	}
	for _, k := range []Kind{Click, TouchStart, KeyDown} {
		if n := b.Len(k); n != 0 {
			t.Errorf("Len(%s) = %d after firing, want 0", k, n)
		}
	}
}

func TestOnceCancelBeforeFire(t *testing.T) {
	b := NewBus()
	calls := 0
	sub := Once(b, func(Event) { calls++ }, Click, KeyDown)

	sub.Cancel()
	b.Dispatch(Event{Kind: Click})

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
	if sub.Fired() {
		t.Error("Fired() = true for a cancelled subscription")
	}
	if n := b.Len(Click); n != 0 {
		t.Errorf("Len(Click) = %d, want 0", n)
	}
}

func TestOnceReentrantDispatch(t *testing.T) {
	b := NewBus()
	calls := 0
	Once(b, func(Event) {
		calls++
		b.Dispatch(Event{Kind: Click})
	}, Click)

	b.Dispatch(Event{Kind: Click})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
