package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"amount": 12.50, "description": "  Lunch\u0007 ", "category": "Food", "flag": true}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Error("expected JSON to be detected")
	}

	tests := map[string]string{
		"amount":      "12.50",
		"description": "  Lunch ",
		"category":    "Food",
		"flag":        "true",
		"missing":     "",
	}
	for key, want := range tests {
		if got := p.Get(key); got != want {
			t.Errorf("Get(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("amount=10&date=2024-01-02&description=Bus+pass"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Error("form body reported as JSON")
	}
	if got := p.Get("description"); got != "Bus pass" {
		t.Errorf("Get(description) = %q", got)
	}
	if got := p.Get("amount"); got != "10" {
		t.Errorf("Get(amount) = %q", got)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("amount"); got != "" {
		t.Errorf("Get(amount) = %q, want empty", got)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":`))
	req.Header.Set("Content-Type", "application/json")
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	// Parse is memoized.
	if err := p.Parse(); err == nil {
		t.Fatal("second Parse() should return the same error")
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	big := strings.Repeat("a", maxBodyBytes+10)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("description="+big))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("Parse() error = %v, want ErrBodyTooLarge", err)
	}
}

func TestParseTransactionInput(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"amount":"-5","date":"2024-02-29","description":"Refund","category":"Others"}`))
	req.Header.Set("Content-Type", "application/json")

	in, err := ParseTransactionInput(req)
	if err != nil {
		t.Fatalf("ParseTransactionInput() error = %v", err)
	}
	want := TransactionInput{Amount: "-5", Date: "2024-02-29", Description: "Refund", Category: "Others"}
	if in != want {
		t.Errorf("ParseTransactionInput() = %+v, want %+v", in, want)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "  plain  "},
		{"tab\tkept", "tab\tkept"},
		{"bell\x07gone", "bellgone"},
		{"del\x7fgone", "delgone"},
		{"\x00\x01", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("clientIP() = %q", got)
	}
	req.RemoteAddr = "203.0.113.8"
	if got := clientIP(req); got != "203.0.113.8" {
		t.Errorf("clientIP() without port = %q", got)
	}
}
