package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/merchbay/storefront/internal/domain/cart"
)

func TestClient_BearerTokenAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode([]cart.Line{})
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.SetToken("tok-123")

	if _, err := client.Cart(context.Background(), "user-1"); err != nil {
		t.Fatalf("Cart: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID header missing")
	}

	client.SetToken("")
	if _, err := client.Cart(context.Background(), "user-1"); err != nil {
		t.Fatalf("Cart: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization after clearing token = %q, want empty", gotAuth)
	}
}

func TestClient_AddCartItemReturnsServerCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cart" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req addCartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.UserID != "1" || req.ProductID != "42" || req.Quantity != 1 {
			t.Errorf("unexpected payload: %+v", req)
		}
		json.NewEncoder(w).Encode([]cart.Line{{LineID: "7", ProductID: "42", Quantity: 3}})
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	lines, err := client.AddCartItem(context.Background(), "1", "42", 1)
	if err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}
	if len(lines) != 1 || lines[0].LineID != "7" || lines[0].Quantity != 3 {
		t.Fatalf("unexpected cart: %+v", lines)
	}
}

func TestClient_ErrorBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
		isAuth bool
	}{
		{"json error field", http.StatusBadRequest, `{"error":"Product does not exist"}`, "Product does not exist", false},
		{"json message field", http.StatusInternalServerError, `{"message":"boom"}`, "boom", false},
		{"plain text", http.StatusBadGateway, "upstream down\n", "upstream down", false},
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid or expired token"}`, "invalid or expired token", true},
		{"forbidden", http.StatusForbidden, `{"error":"admin only"}`, "admin only", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client, err := NewClient(Config{BaseURL: server.URL})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}

			_, err = client.Cart(context.Background(), "user-1")
			if err == nil {
				t.Fatal("expected error")
			}
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("error %v is not a StatusError", err)
			}
			if se.Code != tc.status || se.Message != tc.want {
				t.Errorf("StatusError = %d %q, want %d %q", se.Code, se.Message, tc.status, tc.want)
			}
			if IsAuthError(err) != tc.isAuth {
				t.Errorf("IsAuthError = %v, want %v", IsAuthError(err), tc.isAuth)
			}
		})
	}
}

func TestClient_ProfileAndLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"user":  map[string]string{"user_id": "u1", "display_name": "Ada"},
				"token": "tok-1",
			})
		case "/auth/profile":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid or expired token"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"user_id": "u1", "display_name": "Ada"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	sess, err := client.Login(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.UserID != "u1" || sess.DisplayName != "Ada" || sess.Token != "tok-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	// Login does not install the token; Profile without it is rejected.
	if _, err := client.Profile(context.Background()); !IsAuthError(err) {
		t.Fatalf("Profile without token: got %v, want auth error", err)
	}

	client.SetToken(sess.Token)
	got, err := client.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got.UserID != "u1" {
		t.Fatalf("Profile user = %q, want u1", got.UserID)
	}
}
