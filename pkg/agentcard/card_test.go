package agentcard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moltbridge/moltbridge-go/pkg/agentcard"
)

func TestParse_valid(t *testing.T) {
	data := []byte(`{
		"name": "Research Assistant",
		"description": "Summarizes papers",
		"url": "https://example.com/a2a",
		"version": "1.0.0",
		"capabilities": {"streaming": true},
		"skills": [
			{"id": "summarize", "name": "Summarize", "tags": ["nlp"]}
		]
	}`)

	card, err := agentcard.Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.Name != "Research Assistant" {
		t.Errorf("Name: got %q, want %q", card.Name, "Research Assistant")
	}
	if !card.Capabilities.Streaming {
		t.Error("expected streaming capability")
	}
	if len(card.Skills) != 1 || card.Skills[0].ID != "summarize" {
		t.Errorf("unexpected skills: %+v", card.Skills)
	}
}

func TestParse_missingRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{
			name: "missing name",
			data: []byte(`{"url":"https://example.com/a2a","version":"1.0.0"}`),
		},
		{
			name: "missing url",
			data: []byte(`{"name":"Agent","version":"1.0.0"}`),
		},
		{
			name: "missing version",
			data: []byte(`{"name":"Agent","url":"https://example.com/a2a"}`),
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := agentcard.Parse(tc.data)
			if err == nil {
				t.Error("expected validation error but got nil")
			}
		})
	}
}

func TestParse_ignoresUnknownFields(t *testing.T) {
	data := []byte(`{
		"name": "Agent",
		"url": "https://example.com/a2a",
		"version": "1.0.0",
		"vendor:extension": {"anything": true}
	}`)

	if _, err := agentcard.Parse(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetch_roundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/agent.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Agent","url":"https://example.com/a2a","version":"2.1.0"}`))
	}))
	defer srv.Close()

	card, err := agentcard.Fetch(context.Background(), srv.URL+"/.well-known/agent.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.Version != "2.1.0" {
		t.Errorf("Version: got %q, want %q", card.Version, "2.1.0")
	}
}

func TestFetch_non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := agentcard.Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected error for HTTP 403")
	}
}

func TestFetch_invalidURL(t *testing.T) {
	if _, err := agentcard.Fetch(context.Background(), "not a url"); err == nil {
		t.Error("expected error for invalid URL")
	}
}
