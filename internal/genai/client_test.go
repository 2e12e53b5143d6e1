package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// candidateJSON builds a generateContent response with the given text parts.
func candidateJSON(texts ...string) []byte {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Parts []part `json:"parts"`
	}
	type candidate struct {
		Content content `json:"content"`
	}
	var parts []part
	for _, t := range texts {
		parts = append(parts, part{Text: t})
	}
	b, _ := json.Marshal(map[string]any{
		"candidates": []candidate{{Content: content{Parts: parts}}},
	})
	return b
}

func TestGenerateContent_MissingAPIKey(t *testing.T) {
	c := New("", "")
	_, err := c.GenerateContent(context.Background(), Request{Parts: []Part{{Text: "hola"}}})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestGenerateContent_NoNetworkCallWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewWithBaseURL("", "", srv.URL)
	c.GenerateContent(context.Background(), Request{Parts: []Part{{Text: "hola"}}})
	if called {
		t.Error("request was sent despite missing API key")
	}
}

func TestGenerateContent_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q, want test-key", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if _, ok := body["contents"]; !ok {
			t.Error("request body missing contents")
		}
		w.Write(candidateJSON("Resumen ", "del mes"))
	}))
	defer srv.Close()

	c := NewWithBaseURL("test-key", "", srv.URL)
	got, err := c.GenerateContent(context.Background(), Request{Parts: []Part{{Text: "analiza"}}})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if got != "Resumen del mes" {
		t.Errorf("text = %q, want concatenated parts", got)
	}
}

func TestGenerateContent_StructuredConfigSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GenerationConfig struct {
				ResponseMIMEType string `json:"responseMimeType"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if body.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("responseMimeType = %q, want application/json", body.GenerationConfig.ResponseMIMEType)
		}
		w.Write(candidateJSON(`{"confirmed":true}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL("test-key", "", srv.URL)
	got, err := c.GenerateContent(context.Background(), Request{
		Parts:            []Part{{Text: "confirma"}},
		ResponseMIMEType: "application/json",
		ResponseSchema: &Schema{
			Type:       "object",
			Properties: map[string]Schema{"confirmed": {Type: "boolean"}},
		},
	})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if got != `{"confirmed":true}` {
		t.Errorf("text = %q", got)
	}
}

func TestGenerateContent_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewWithBaseURL("test-key", "", srv.URL)
	_, err := c.GenerateContent(context.Background(), Request{Parts: []Part{{Text: "hola"}}})
	if err == nil {
		t.Fatal("expected error on HTTP 429")
	}
}

func TestGenerateContent_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL("test-key", "", srv.URL)
	_, err := c.GenerateContent(context.Background(), Request{Parts: []Part{{Text: "hola"}}})
	if err == nil {
		t.Fatal("expected error on empty candidates")
	}
}
