package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/models"
)

func TestChannelHandlerToggleSubscribeAndUnsubscribe(t *testing.T) {
	users := newInMemoryUserStore()
	subs := newInMemorySubscriptionStore()
	handler := ChannelHandler{Users: users, Subscriptions: subs}

	viewer := seedUser(t, users, "alice", "password123")
	seedUser(t, users, "bob", "password123")

	req := identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/toggle/bob", nil), viewer)
	req.SetPathValue("username", "bob")
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data subscriptionStatus `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.Subscribed {
		t.Fatal("expected first toggle to subscribe")
	}

	req = identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/toggle/bob", nil), viewer)
	req.SetPathValue("username", "bob")
	rec = httptest.NewRecorder()

	handler.Toggle(rec, req)

	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Subscribed {
		t.Fatal("expected second toggle to unsubscribe")
	}
}

func TestChannelHandlerToggleRejectsSelfSubscription(t *testing.T) {
	users := newInMemoryUserStore()
	handler := ChannelHandler{Users: users, Subscriptions: newInMemorySubscriptionStore()}

	viewer := seedUser(t, users, "alice", "password123")

	req := identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/toggle/alice", nil), viewer)
	req.SetPathValue("username", "alice")
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected self-subscription to be rejected, got %d", rec.Code)
	}
}

func TestChannelHandlerToggleUnknownChannel(t *testing.T) {
	users := newInMemoryUserStore()
	handler := ChannelHandler{Users: users, Subscriptions: newInMemorySubscriptionStore()}

	viewer := seedUser(t, users, "alice", "password123")

	req := identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/toggle/ghost", nil), viewer)
	req.SetPathValue("username", "ghost")
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestChannelHandlerProfile(t *testing.T) {
	users := newInMemoryUserStore()
	subs := newInMemorySubscriptionStore()
	handler := ChannelHandler{Users: users, Subscriptions: subs}

	viewer := seedUser(t, users, "alice", "password123")
	subs.profiles["bob"] = models.ChannelProfile{
		ID:               "user-bob",
		Username:         "bob",
		SubscribersCount: 3,
		IsSubscribed:     true,
	}

	req := identityRequest(httptest.NewRequest(http.MethodGet, "/api/v1/users/channel/bob", nil), viewer)
	req.SetPathValue("username", "bob")
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Data models.ChannelProfile `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.SubscribersCount != 3 || !resp.Data.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", resp.Data)
	}

	req = identityRequest(httptest.NewRequest(http.MethodGet, "/api/v1/users/channel/ghost", nil), viewer)
	req.SetPathValue("username", "ghost")
	rec = httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for unknown channel got %d", http.StatusNotFound, rec.Code)
	}
}
