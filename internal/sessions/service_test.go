package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/inkfeed/inkfeed/internal/identity"
)

func TestCreateAndValidateSession(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	id := &identity.Session{
		UID: "uid-1", Email: "ada@example.com", EmailVerified: true,
		DisplayName: "Ada", RefreshToken: "provider-refresh",
	}
	r, err := svc.CreateSession(ctx, id, time.Hour)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if r == "" {
		t.Fatalf("expected refresh token")
	}
	// validate
	sess, err := svc.ValidateRefresh(ctx, r)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if sess == nil || sess.UID != "uid-1" {
		t.Fatalf("unexpected session: %v", sess)
	}
	if sess.ProviderRefreshToken != "provider-refresh" {
		t.Fatalf("provider refresh token not carried: %v", sess.ProviderRefreshToken)
	}
	// delete
	if err := svc.DeleteRefresh(ctx, r); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	sess2, _ := svc.ValidateRefresh(ctx, r)
	if sess2 != nil {
		t.Fatalf("expected session removed")
	}
}

func TestValidateRefresh_Expired(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	id := &identity.Session{UID: "uid-2"}
	r, err := svc.CreateSession(ctx, id, -time.Minute)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	sess, err := svc.ValidateRefresh(ctx, r)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected expired session to be rejected")
	}
	// expired entry is cleaned up
	got, _ := repo.GetByRefresh(ctx, r)
	if got != nil {
		t.Fatalf("expected expired session to be deleted")
	}
}

func TestValidateRefresh_Unknown(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	sess, err := svc.ValidateRefresh(context.Background(), "nope")
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil session for unknown token")
	}
}
