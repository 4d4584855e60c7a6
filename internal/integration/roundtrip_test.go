package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mediagate/media-api/internal/auth"
	"mediagate/media-api/internal/media"
)

// exerciseBackend drives the auth and media services against real stores.
func exerciseBackend(t *testing.T, users auth.UserStore, store media.Store) {
	t.Helper()
	ctx := context.Background()

	tokens, err := auth.NewTokenService("integration-secret")
	if err != nil {
		t.Fatalf("NewTokenService() error: %v", err)
	}
	authSvc, err := auth.NewService(users, tokens, auth.ServiceConfig{BcryptCost: 4})
	if err != nil {
		t.Fatalf("auth.NewService() error: %v", err)
	}
	mediaSvc, err := media.NewService(store, tokens, media.ServiceConfig{BaseURL: "http://media.test"})
	if err != nil {
		t.Fatalf("media.NewService() error: %v", err)
	}

	email := fmt.Sprintf("itest_%d@example.com", time.Now().UnixNano())
	admin, err := authSvc.Signup(ctx, email, "Password123!")
	if err != nil {
		t.Fatalf("Signup() error: %v", err)
	}
	if _, err := authSvc.Signup(ctx, email, "other"); !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken on duplicate signup, got %v", err)
	}

	token, err := authSvc.Login(ctx, email, "Password123!")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	got, err := authSvc.Authenticate(ctx, "Bearer "+token)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if got.ID != admin.ID || got.Email != email {
		t.Fatalf("unexpected authenticated admin: %+v", got)
	}

	asset, err := mediaSvc.Create(ctx, media.Asset{Title: "Intro", Type: media.TypeVideo, FileURL: "https://cdn.example.com/intro.mp4"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := mediaSvc.Get(ctx, asset.ID); err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	for _, ip := range []string{"10.0.0.1", "10.0.0.1", "10.0.0.2"} {
		if _, err := mediaSvc.RecordView(ctx, asset.ID, ip); err != nil {
			t.Fatalf("RecordView(%s) error: %v", ip, err)
		}
	}
	stats, err := mediaSvc.Analytics(ctx, asset.ID)
	if err != nil {
		t.Fatalf("Analytics() error: %v", err)
	}
	if stats.TotalViews != 3 || stats.UniqueIPs != 2 {
		t.Fatalf("expected 3 views from 2 ips, got %+v", stats)
	}
	day := time.Now().UTC().Format("2006-01-02")
	if stats.ViewsPerDay[day] != 3 {
		t.Fatalf("expected 3 views on %s, got %v", day, stats.ViewsPerDay)
	}

	link, err := mediaSvc.StreamURL(ctx, asset.ID)
	if err != nil {
		t.Fatalf("StreamURL() error: %v", err)
	}
	if link.ExpiresInSeconds != 600 {
		t.Fatalf("expected 600 second expiry, got %d", link.ExpiresInSeconds)
	}
}
