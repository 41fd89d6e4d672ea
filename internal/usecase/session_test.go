package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/localsolutions/board-api/internal/infra/security"
	"github.com/localsolutions/board-api/internal/infra/telemetry"
)

type sessionFixture struct {
	clock     *fakeClock
	codec     *security.TokenCodec
	store     *security.MemoryRevocationStore
	users     *testUserRepo
	publisher *recordingPublisher
	observer  *recordingObserver
	service   *SessionService
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	f := &sessionFixture{
		clock:     clock,
		codec:     newTestCodec(t, clock, time.Hour),
		store:     security.NewMemoryRevocationStore().WithClock(clock.Now),
		users:     newTestUserRepo(testAlice()),
		publisher: &recordingPublisher{},
		observer:  &recordingObserver{},
	}
	f.service = NewSessionService(f.codec, f.store, f.users, SessionOptions{
		InstanceID: "instance-a",
		Publisher:  f.publisher,
		Metrics:    f.observer,
		Logger:     zaptest.NewLogger(t),
		Now:        clock.Now,
	})
	return f
}

func (f *sessionFixture) issue(t *testing.T) string {
	t.Helper()
	issued, err := f.service.Issue(context.Background(), testAlice().Identity())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return issued.Token
}

func TestSessionIssueReportsLifetime(t *testing.T) {
	f := newSessionFixture(t)

	issued, err := f.service.Issue(context.Background(), testAlice().Identity())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.TTL != time.Hour {
		t.Fatalf("expected ttl 1h, got %s", issued.TTL)
	}
	if !issued.ExpiresAt.Equal(f.clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", issued.ExpiresAt)
	}
	if !f.codec.Validate(issued.Token, "alice") {
		t.Fatalf("issued token should validate for its subject")
	}
}

func TestSessionLogoutRevokesToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	token := f.issue(t)

	principal, err := f.service.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate before logout: %v", err)
	}
	if principal.Username != "alice" || principal.UserID != 1 {
		t.Fatalf("unexpected principal %+v", principal)
	}

	if err := f.service.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = f.service.Authenticate(ctx, token)
	if !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
	if reason := RejectionReason(err); reason != ReasonRevoked {
		t.Fatalf("expected reason Revoked, got %s", reason)
	}

	if len(f.publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(f.publisher.events))
	}
	event := f.publisher.events[0]
	if event.Origin != "instance-a" {
		t.Fatalf("expected origin instance-a, got %q", event.Origin)
	}
	if event.TokenDigest != security.TokenDigest(token) {
		t.Fatalf("event digest mismatch")
	}
	if !event.ExpiresAt.Equal(f.clock.Now().Add(time.Hour)) {
		t.Fatalf("event expiry mismatch: %s", event.ExpiresAt)
	}

	want := []string{telemetry.OutcomeAllowed + ":", telemetry.OutcomeRejected + ":" + ReasonRevoked}
	if len(f.observer.decisions) != len(want) {
		t.Fatalf("unexpected decisions %v", f.observer.decisions)
	}
	for i := range want {
		if f.observer.decisions[i] != want[i] {
			t.Fatalf("decision %d: expected %s, got %s", i, want[i], f.observer.decisions[i])
		}
	}
	if len(f.observer.revocations) != 1 || f.observer.revocations[0] != "local" {
		t.Fatalf("unexpected revocations %v", f.observer.revocations)
	}
}

func TestSessionAuthenticateRejections(t *testing.T) {
	foreignClock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	foreign, err := security.NewTokenCodec(security.TokenCodecOptions{
		Secret: "ffffffffffffffffffffffffffffffff",
		Issuer: "board-api",
		TTL:    time.Hour,
		Now:    foreignClock.Now,
	})
	if err != nil {
		t.Fatalf("foreign codec: %v", err)
	}

	tests := []struct {
		name   string
		token  func(t *testing.T, f *sessionFixture) string
		reason string
	}{
		{
			name:   "missing",
			token:  func(*testing.T, *sessionFixture) string { return "  " },
			reason: ReasonMissingToken,
		},
		{
			name:   "garbage",
			token:  func(*testing.T, *sessionFixture) string { return "not.a.jwt" },
			reason: ReasonMalformedToken,
		},
		{
			name: "foreign secret",
			token: func(t *testing.T, _ *sessionFixture) string {
				token, err := foreign.Issue("alice", foreignClock.Now())
				if err != nil {
					t.Fatalf("issue: %v", err)
				}
				return token
			},
			reason: ReasonMalformedToken,
		},
		{
			name: "expired at boundary",
			token: func(t *testing.T, f *sessionFixture) string {
				token := f.issue(t)
				f.clock.Advance(time.Hour)
				return token
			},
			reason: ReasonExpired,
		},
		{
			name: "issued in the future",
			token: func(t *testing.T, f *sessionFixture) string {
				token, err := f.codec.Issue("alice", f.clock.Now().Add(10*time.Minute))
				if err != nil {
					t.Fatalf("issue: %v", err)
				}
				return token
			},
			reason: ReasonInvalidToken,
		},
		{
			name: "subject deleted",
			token: func(t *testing.T, f *sessionFixture) string {
				token := f.issue(t)
				f.users.remove(1)
				return token
			},
			reason: ReasonUnknownSubject,
		},
		{
			name: "identity backend down",
			token: func(t *testing.T, f *sessionFixture) string {
				token := f.issue(t)
				f.users.lookupErr = errors.New("connection refused")
				return token
			},
			reason: ReasonInvalidToken,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			token := tt.token(t, f)

			principal, err := f.service.Authenticate(context.Background(), token)
			if err == nil {
				t.Fatalf("expected rejection, got principal %+v", principal)
			}
			if reason := RejectionReason(err); reason != tt.reason {
				t.Fatalf("expected reason %s, got %s (%v)", tt.reason, reason, err)
			}
			last := f.observer.decisions[len(f.observer.decisions)-1]
			if last != telemetry.OutcomeRejected+":"+tt.reason {
				t.Fatalf("unexpected recorded decision %s", last)
			}
		})
	}
}

func TestSessionRevocationCheckedBeforeExpiry(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	token := f.issue(t)

	if err := f.service.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	f.clock.Advance(30 * time.Minute)

	if _, err := f.service.Authenticate(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected revoked, got %v", err)
	}
}

func TestSessionRevocationStoreFailureRejects(t *testing.T) {
	f := newSessionFixture(t)
	token := f.issue(t)
	service := NewSessionService(f.codec, failingRevocationStore{}, f.users, SessionOptions{
		Logger: zaptest.NewLogger(t),
		Now:    f.clock.Now,
	})

	_, err := service.Authenticate(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if RejectionReason(err) != ReasonInvalidToken {
		t.Fatalf("expected InvalidToken reason")
	}
}

func TestSessionLogoutMalformedToken(t *testing.T) {
	f := newSessionFixture(t)

	for _, token := range []string{"", "garbage"} {
		if err := f.service.Logout(context.Background(), token); !errors.Is(err, ErrNothingToRevoke) {
			t.Fatalf("token %q: expected ErrNothingToRevoke, got %v", token, err)
		}
	}
	if f.store.Len() != 0 {
		t.Fatalf("nothing should have been revoked")
	}
	if len(f.publisher.events) != 0 {
		t.Fatalf("nothing should have been published")
	}
}

func TestSessionLogoutAcceptsExpiredToken(t *testing.T) {
	f := newSessionFixture(t)
	token := f.issue(t)
	f.clock.Advance(2 * time.Hour)

	if err := f.service.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout of expired token: %v", err)
	}
	if len(f.publisher.events) != 1 {
		t.Fatalf("expected event to be published")
	}
}

func TestSessionLogoutSurvivesPublishFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.publisher.err = errors.New("broker down")
	token := f.issue(t)

	if err := f.service.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout should not fail on publish error: %v", err)
	}
	if _, err := f.service.Authenticate(context.Background(), token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected local revocation to hold, got %v", err)
	}
}

func TestSessionLogoutStoreFailure(t *testing.T) {
	f := newSessionFixture(t)
	token := f.issue(t)
	service := NewSessionService(f.codec, failingRevocationStore{}, f.users, SessionOptions{Now: f.clock.Now})

	err := service.Logout(context.Background(), token)
	if err == nil || errors.Is(err, ErrNothingToRevoke) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestSessionTokensAreIndependent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	first := f.issue(t)
	f.clock.Advance(time.Second)
	second := f.issue(t)

	if first == second {
		t.Fatalf("expected distinct tokens")
	}
	if err := f.service.Logout(ctx, first); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.service.Authenticate(ctx, second); err != nil {
		t.Fatalf("second token should remain valid: %v", err)
	}
}
