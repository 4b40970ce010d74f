package httpc

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPostSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	}))
	defer srv.Close()

	resp, err := Post(srv.URL, "application/json", []byte(`{"from":1}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	got, _ := io.ReadAll(resp.Body)
	if string(got) != `{"from":1}` {
		t.Errorf("echoed body = %q, want {\"from\":1}", got)
	}
}

func TestCheckResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		http.Error(w, `{"error":"scene not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := Get(srv.URL + "/ok")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()
	if err := CheckResponse(resp); err != nil {
		t.Errorf("CheckResponse(202) = %v, want nil", err)
	}

	resp, err = Get(srv.URL + "/missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	err = CheckResponse(resp)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("CheckResponse(404) = %v, want *StatusError", err)
	}
	if se.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want 404", se.Code)
	}
	if se.Body != `{"error":"scene not found"}` {
		t.Errorf("Body = %q", se.Body)
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient(5 * time.Second)
	if c.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.Timeout)
	}
	if c.Transport == nil {
		t.Error("Transport should be set")
	}
	if Client.Timeout != DefaultTimeout {
		t.Errorf("shared Timeout = %v, want %v", Client.Timeout, DefaultTimeout)
	}
}
