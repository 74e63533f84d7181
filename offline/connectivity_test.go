package offline

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestManualConnectivity_NotifiesOnChangeOnly(t *testing.T) {
	conn := NewManualConnectivity(false)

	var got []bool
	conn.Subscribe(func(online bool) { got = append(got, online) })

	conn.SetOnline(false) // no change, no notification
	conn.SetOnline(true)
	conn.SetOnline(true) // no change
	conn.SetOnline(false)

	want := []bool{true, false}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestManualConnectivity_Unsubscribe(t *testing.T) {
	conn := NewManualConnectivity(false)

	calls := 0
	unsubscribe := conn.Subscribe(func(bool) { calls++ })

	conn.SetOnline(true)
	unsubscribe()
	conn.SetOnline(false)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestManualConnectivity_PanickingSubscriberIsolated(t *testing.T) {
	conn := NewManualConnectivity(false)

	conn.Subscribe(func(bool) { panic("listener bug") })
	notified := false
	conn.Subscribe(func(bool) { notified = true })

	conn.SetOnline(true)
	if !notified {
		t.Error("healthy subscriber starved by a panicking one")
	}
	if !conn.Online() {
		t.Error("state change lost")
	}
}

func TestProbeConnectivity_DetectsUpAndDown(t *testing.T) {
	var mu sync.Mutex
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ok := healthy
		mu.Unlock()
		if !ok {
			// Hijack and drop the connection so the client sees a
			// transport error, not an HTTP status.
			hj, _ := w.(http.Hijacker)
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	probe := NewProbeConnectivity(ProbeConnectivityConfig{
		URL:      server.URL,
		Interval: 10 * time.Millisecond,
	})

	changes := make(chan bool, 16)
	probe.Subscribe(func(online bool) { changes <- online })

	probe.Start()
	defer probe.Close()

	mu.Lock()
	healthy = false
	mu.Unlock()

	select {
	case online := <-changes:
		if online {
			t.Fatalf("first change = online, want offline")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("probe never noticed the outage")
	}

	mu.Lock()
	healthy = true
	mu.Unlock()

	select {
	case online := <-changes:
		if !online {
			t.Fatalf("second change = offline, want online")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("probe never noticed recovery")
	}
}

func TestProbeConnectivity_UnreachableURLGoesOffline(t *testing.T) {
	probe := NewProbeConnectivity(ProbeConnectivityConfig{
		URL:        "http://127.0.0.1:1", // nothing listens here
		Interval:   5 * time.Millisecond,
		HTTPClient: &http.Client{Timeout: 250 * time.Millisecond},
	})

	probe.Start()
	defer probe.Close()

	deadline := time.Now().Add(2 * time.Second)
	for probe.Online() {
		if time.Now().After(deadline) {
			t.Fatal("probe stayed online against an unreachable URL")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
