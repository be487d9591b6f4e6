package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeliver_SignsBody(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewSender(time.Second, nil)
	ev := &Event{Type: EventRunPage, RunID: "run-1", Timestamp: 1700000000, Data: map[string]int{"page": 1}}
	if err := s.Deliver(context.Background(), srv.URL, "s3cret", ev); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if !Verify("s3cret", gotBody, gotSig) {
		t.Errorf("signature %q does not verify", gotSig)
	}
	if Verify("other", gotBody, gotSig) {
		t.Error("signature verified with the wrong secret")
	}
	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil || decoded.RunID != "run-1" || decoded.Type != EventRunPage {
		t.Errorf("body = %s, err = %v", gotBody, err)
	}
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(SignatureHeader) != "" {
			t.Error("unexpected signature header")
		}
	}))
	defer srv.Close()

	if err := NewSender(time.Second, nil).Deliver(context.Background(), srv.URL, "", &Event{Type: EventRunCompleted}); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewSender(time.Second, nil).Deliver(context.Background(), srv.URL, "", &Event{}); err == nil {
		t.Error("Deliver() should fail on 502")
	}
}

func TestDeliverAsync_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	s := NewSender(time.Second, nil)
	s.delays = []time.Duration{0, 0, 0, 0}

	select {
	case <-s.DeliverAsync(srv.URL, "", &Event{Type: EventRunCompleted}):
	case <-time.After(5 * time.Second):
		t.Fatal("DeliverAsync did not finish")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}
