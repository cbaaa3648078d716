package invoke

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/featherfn/metagate/internal/entity"
)

func testCreds() entity.AuthKey {
	return entity.AuthKey{UUID: "user-uuid", Key: "user-key"}
}

func TestInvokeBuildsBlockingRequestWithBasicAuth(t *testing.T) {
	var gotPath, gotQuery, gotContentType string
	var gotUser, gotPass string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"activationId":"aid-1","response":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "v1", server.Client())
	outcome, errInvoke := client.Invoke(context.Background(), testCreds(), "whisk.system", "routemgmt/getApi", []byte(`{"a":"b"}`))
	if errInvoke != nil {
		t.Fatalf("invoke: %v", errInvoke)
	}

	if gotPath != "/api/v1/namespaces/whisk.system/actions/routemgmt/getApi" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotQuery != "blocking=true" {
		t.Fatalf("unexpected query: %s", gotQuery)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type: %s", gotContentType)
	}
	if gotUser != "user-uuid" || gotPass != "user-key" {
		t.Fatalf("unexpected credentials: %s:%s", gotUser, gotPass)
	}

	if outcome.Kind != OutcomeSuccess {
		t.Fatalf("expected success, got %v", outcome.Kind)
	}
	if outcome.ActivationID != "aid-1" {
		t.Fatalf("unexpected activation id: %s", outcome.ActivationID)
	}
}

func TestInvokeAcceptedBecomesPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"activationId":"aid-2"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "v1", server.Client())
	outcome, errInvoke := client.Invoke(context.Background(), testCreds(), "guest", "echo", nil)
	if errInvoke != nil {
		t.Fatalf("invoke: %v", errInvoke)
	}
	if outcome.Kind != OutcomePending {
		t.Fatalf("expected pending, got %v", outcome.Kind)
	}
	if outcome.ActivationID != "aid-2" {
		t.Fatalf("unexpected activation id: %s", outcome.ActivationID)
	}
}

func TestInvokeAcceptedWithoutActivationIDIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "v1", server.Client())
	outcome, _ := client.Invoke(context.Background(), testCreds(), "guest", "echo", nil)
	if outcome.Kind != OutcomeFailure {
		t.Fatalf("expected failure, got %v", outcome.Kind)
	}
}

func TestInvokeErrorResponses(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"json error body", http.StatusBadGateway, `{"error":"no invokers"}`, http.StatusBadGateway, "no invokers"},
		{"plain text body", http.StatusNotFound, `no such action`, http.StatusNotFound, "no such action"},
		{"non-object success body", http.StatusOK, `[1,2]`, http.StatusOK, "invoke: activation record is not a json object"},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		client := NewClient(server.URL, "v1", server.Client())
		outcome, errInvoke := client.Invoke(context.Background(), testCreds(), "guest", "echo", nil)
		server.Close()

		if errInvoke != nil {
			t.Fatalf("%s: invoke: %v", tc.name, errInvoke)
		}
		if outcome.Kind != OutcomeFailure {
			t.Fatalf("%s: expected failure, got %v", tc.name, outcome.Kind)
		}
		if outcome.Cause.StatusCode != tc.wantStatus {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.wantStatus, outcome.Cause.StatusCode)
		}
		if outcome.Cause.Message != tc.wantMessage {
			t.Fatalf("%s: expected message %q, got %q", tc.name, tc.wantMessage, outcome.Cause.Message)
		}
	}
}

func TestInvokeTransportErrorIsFailureWithoutStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL, "v1", nil)
	outcome, errInvoke := client.Invoke(context.Background(), testCreds(), "guest", "echo", nil)
	if errInvoke != nil {
		t.Fatalf("transport errors must not surface as errors: %v", errInvoke)
	}
	if outcome.Kind != OutcomeFailure {
		t.Fatalf("expected failure, got %v", outcome.Kind)
	}
	if outcome.Cause.StatusCode != 0 {
		t.Fatalf("expected status 0, got %d", outcome.Cause.StatusCode)
	}
}

func TestInvokeRejectsMissingCredentials(t *testing.T) {
	client := NewClient("http://localhost:0", "v1", nil)
	if _, errInvoke := client.Invoke(context.Background(), entity.AuthKey{}, "guest", "echo", nil); errInvoke == nil {
		t.Fatal("expected an error for empty credentials")
	}
}

func TestActivationCodeIsStableAndPositive(t *testing.T) {
	first := ActivationCode("AID")
	second := ActivationCode("AID")
	if first != second {
		t.Fatal("activation code must be stable")
	}
	if first < 0 {
		t.Fatalf("activation code must be non-negative, got %d", first)
	}
	if ActivationCode("other") == first {
		t.Fatal("distinct ids should map to distinct codes")
	}
}
