package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func newSMSClientForTest(baseURL string) *SMSClient {
	c := NewSMSClient(baseURL, "test-key", "carelink", zerolog.Nop())
	c.http.SetRetryCount(0)
	return c
}

func TestSMSSend_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message_id":"m-1","status":"queued"}`))
	}))
	defer srv.Close()

	res := newSMSClientForTest(srv.URL).Send(context.Background(), "+15550100", "time for your medication")
	if !res.Success {
		t.Fatalf("expected success, got message %q", res.Message)
	}
	if !strings.Contains(string(res.Provider), "m-1") {
		t.Errorf("expected raw provider payload, got %s", res.Provider)
	}
}

func TestSMSSend_ProviderErrorDoesNotThrow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("gateway exploded"))
	}))
	defer srv.Close()

	res := newSMSClientForTest(srv.URL).Send(context.Background(), "+15550100", "hello")
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Message, "gateway exploded") {
		t.Errorf("expected provider detail in message, got %q", res.Message)
	}
}

func TestSMSSend_TransportErrorDoesNotThrow(t *testing.T) {
	res := newSMSClientForTest("http://127.0.0.1:1").Send(context.Background(), "+15550100", "hello")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Message == "" {
		t.Error("expected a message describing the failure")
	}
}

func TestSMSSend_MissingFields(t *testing.T) {
	res := newSMSClientForTest("http://unused").Send(context.Background(), "", "")
	if res.Success {
		t.Fatal("expected failure for missing fields")
	}
}

func TestUpload_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if preset := r.FormValue("upload_preset"); preset != "care-docs" {
			t.Errorf("unexpected preset %q", preset)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"secure_url":"https://cdn.example.com/a.png"}`))
	}))
	defer srv.Close()

	u := newUploaderForTest(srv.URL, "care-docs", zerolog.Nop())
	res := u.Upload(context.Background(), "a.png", []byte("png-bytes"))
	if !res.Success || res.Data != "https://cdn.example.com/a.png" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestUploadMany_PartialSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 2 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"invalid image"}}`))
			return
		}
		w.Write([]byte(`{"secure_url":"https://cdn.example.com/ok.png"}`))
	}))
	defer srv.Close()

	u := newUploaderForTest(srv.URL, "care-docs", zerolog.Nop())
	res := u.UploadMany(context.Background(), []File{
		{Name: "one.png", Content: []byte("x")},
		{Name: "two.png", Content: []byte("y")},
		{Name: "three.png", Content: []byte("z")},
	})
	if !res.Success {
		t.Fatalf("expected partial success: %+v", res)
	}
	if len(res.Data) != 2 {
		t.Errorf("expected 2 urls, got %d", len(res.Data))
	}
}

func TestUploadMany_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"nope"}}`))
	}))
	defer srv.Close()

	u := newUploaderForTest(srv.URL, "care-docs", zerolog.Nop())
	res := u.UploadMany(context.Background(), []File{{Name: "a", Content: []byte("x")}})
	if res.Success {
		t.Fatal("expected failure when every upload fails")
	}
	if res.Message != "nope" {
		t.Errorf("expected provider message, got %q", res.Message)
	}
}

func TestClient_AttachesBearerAndInterceptsUnauthorized(t *testing.T) {
	var sawAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var invalidated bool
	client := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		Token:          func() string { return "tok-123" },
		OnUnauthorized: func() { invalidated = true },
		Logger:         zerolog.Nop(),
	})

	resp, err := client.R().Get("/me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawAuth != "Bearer tok-123" {
		t.Errorf("expected bearer header, got %q", sawAuth)
	}
	if resp.StatusCode() != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode())
	}
	if !invalidated {
		t.Error("expected 401 hook to fire")
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var sawAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Token: func() string { return "" }, Logger: zerolog.Nop()})
	if _, err := client.R().Get("/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawAuth != "" {
		t.Errorf("expected no auth header, got %q", sawAuth)
	}
}
