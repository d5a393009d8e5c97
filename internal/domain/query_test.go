package domain

import (
	"testing"
	"time"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		from, to QueryStatus
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusClosed, true},
		{StatusInProgress, StatusAnswered, true},
		{StatusAnswered, StatusClosed, true},
		{StatusAnswered, StatusAnswered, true},
		{StatusInProgress, StatusPending, false},
		{StatusClosed, StatusAnswered, false},
		{StatusClosed, StatusPending, false},
		{QueryStatus("bogus"), StatusPending, false},
		{StatusPending, QueryStatus("bogus"), false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTempIDs(t *testing.T) {
	at := time.UnixMilli(1740000000000)
	id := NewTempID(at)
	if id != "temp-1740000000000" {
		t.Fatalf("unexpected temp id %q", id)
	}

	if !(Message{ID: id}).IsTemp() {
		t.Fatal("temp id not detected")
	}
	if (Message{ID: "663a1f"}).IsTemp() {
		t.Fatal("server id misdetected as temp")
	}
}
