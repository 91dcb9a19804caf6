package identity

import "testing"

func TestSessionStartsUnknown(t *testing.T) {
	session := NewSession()
	if snap := session.Snapshot(); snap.State != StateUnknown || snap.User != nil {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
}

func TestSubscribeDeliversCurrentSnapshotImmediately(t *testing.T) {
	session := NewSession()
	session.SignIn(User{ID: "cus_1", DisplayName: "Ada"})

	var seen []Snapshot
	cancel := session.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap)
	})
	defer cancel()

	if len(seen) != 1 {
		t.Fatalf("expected immediate delivery, got %d", len(seen))
	}
	if seen[0].State != StateSignedIn || seen[0].User.ID != "cus_1" {
		t.Fatalf("unexpected snapshot %+v", seen[0])
	}
}

func TestSessionNotifiesTransitions(t *testing.T) {
	session := NewSession()
	var states []State
	cancel := session.Subscribe(func(snap Snapshot) {
		states = append(states, snap.State)
	})
	defer cancel()

	session.SignIn(User{ID: "cus_1"})
	session.SignIn(User{ID: "cus_1"}) // no-op, same user
	session.SignOut()
	session.SignOut() // no-op, already signed out

	want := []State{StateUnknown, StateSignedIn, StateSignedOut}
	if len(states) != len(want) {
		t.Fatalf("expected %d notifications, got %v", len(want), states)
	}
	for i, state := range want {
		if states[i] != state {
			t.Fatalf("notification %d: expected %v got %v", i, state, states[i])
		}
	}
}

func TestSignInWithEmptyIDMeansSignedOut(t *testing.T) {
	session := NewSession()
	session.SignIn(User{})
	if snap := session.Snapshot(); snap.State != StateSignedOut {
		t.Fatalf("expected signed out, got %v", snap.State)
	}
}

func TestCancelStopsDeliveryAndIsIdempotent(t *testing.T) {
	session := NewSession()
	count := 0
	cancel := session.Subscribe(func(Snapshot) { count++ })

	cancel()
	cancel()
	session.SignIn(User{ID: "cus_1"})

	if count != 1 {
		t.Fatalf("expected only the initial delivery, got %d", count)
	}
}

func TestStateString(t *testing.T) {
	if StateUnknown.String() != "unknown" || StateSignedOut.String() != "signed_out" || StateSignedIn.String() != "signed_in" {
		t.Fatal("unexpected state strings")
	}
}
