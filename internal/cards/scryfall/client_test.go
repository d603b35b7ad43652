package scryfall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/abc-123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "abc-123",
			"name": "Sol Ring",
			"lang": "en",
			"type_line": "Artifact",
			"mana_cost": "{1}",
			"oracle_text": "{T}: Add {C}{C}.",
			"color_identity": [],
			"prints_search_uri": "https://example.com/prints"
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	card, err := client.GetCard(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}

	if card.ID != "abc-123" {
		t.Errorf("ID = %q, want %q", card.ID, "abc-123")
	}
	if card.Name != "Sol Ring" {
		t.Errorf("Name = %q, want %q", card.Name, "Sol Ring")
	}
	if card.TypeLine != "Artifact" {
		t.Errorf("TypeLine = %q, want %q", card.TypeLine, "Artifact")
	}
	if len(card.ColorIdentity) != 0 {
		t.Errorf("ColorIdentity = %v, want empty", card.ColorIdentity)
	}
}

func TestGetCardByFuzzyName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/named" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("fuzzy"); got != "sol rin" {
			t.Errorf("fuzzy query = %q, want %q", got, "sol rin")
		}
		_, _ = w.Write([]byte(`{"id": "abc-123", "name": "Sol Ring"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	card, err := client.GetCardByFuzzyName(context.Background(), "sol rin")
	if err != nil {
		t.Fatalf("GetCardByFuzzyName() error = %v", err)
	}
	if card.Name != "Sol Ring" {
		t.Errorf("Name = %q, want %q", card.Name, "Sol Ring")
	}
}

func TestGetPrintings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"object": "list",
			"total_cards": 2,
			"has_more": false,
			"data": [
				{"id": "p1", "lang": "en", "oracle_text": "Tap: add mana."},
				{"id": "p2", "lang": "fr", "oracle_text": "Engagez: ajoutez du mana."}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient()
	list, err := client.GetPrintings(context.Background(), server.URL+"/cards/search?prints=1")
	if err != nil {
		t.Fatalf("GetPrintings() error = %v", err)
	}
	if len(list.Data) != 2 {
		t.Fatalf("got %d printings, want 2", len(list.Data))
	}
	if list.Data[1].Lang != "fr" {
		t.Errorf("second printing lang = %q, want %q", list.Data[1].Lang, "fr")
	}
}

func TestNotFoundIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object": "error", "status": 404}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	if _, err := client.GetCard(context.Background(), "missing"); err == nil {
		t.Error("GetCard() on 404 returned nil error")
	}
	if _, err := client.GetCardByFuzzyName(context.Background(), "no such card"); err == nil {
		t.Error("GetCardByFuzzyName() on 404 returned nil error")
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "abc"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseURL(server.URL))
	if _, err := client.GetCard(ctx, "abc"); err == nil {
		t.Error("GetCard() with cancelled context returned nil error")
	}
}
