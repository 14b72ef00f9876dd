package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"homni_backend/internal/auth/password"
	"homni_backend/internal/auth/repository"
	"homni_backend/internal/auth/transport"
	"homni_backend/internal/events"
	"homni_backend/internal/shared/roles"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

type testAuthConfig struct{}

func (testAuthConfig) GetJWTAccessSecret() string       { return testSecret }
func (testAuthConfig) GetAccessTokenTTL() time.Duration { return time.Hour }

type fakeRepo struct {
	users  map[uuid.UUID]repository.User
	grants map[uuid.UUID][]repository.RoleGrant
	err    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[uuid.UUID]repository.User{}, grants: map[uuid.UUID][]repository.RoleGrant{}}
}

func (r *fakeRepo) CreateUser(_ context.Context, email, hash, fullName, role string) (repository.User, error) {
	if r.err != nil {
		return repository.User{}, r.err
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return repository.User{}, repository.ErrEmailTaken
		}
	}
	u := repository.User{ID: uuid.New(), Email: email, PasswordHash: hash, FullName: fullName, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.users[u.ID] = u
	r.grants[u.ID] = []repository.RoleGrant{{Role: role}}
	return u, nil
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	if r.err != nil {
		return repository.User{}, r.err
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrNotFound
}

func (r *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	if r.err != nil {
		return repository.User{}, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeRepo) GetUserRoles(_ context.Context, id uuid.UUID) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := []string{}
	for _, g := range r.grants[id] {
		if g.ExpiresAt == nil || g.ExpiresAt.After(time.Now()) {
			out = append(out, g.Role)
		}
	}
	return out, nil
}

func (r *fakeRepo) GrantRole(_ context.Context, id uuid.UUID, role string) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.grants[id] = append(r.grants[id], repository.RoleGrant{Role: role})
	return nil
}

func (r *fakeRepo) SetUserRoles(_ context.Context, id uuid.UUID, grants []repository.RoleGrant) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.grants[id] = grants
	return nil
}

func (r *fakeRepo) CleanupExpiredRoles(_ context.Context, now time.Time) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var removed int64
	for id, grants := range r.grants {
		kept := grants[:0]
		for _, g := range grants {
			if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
				removed++
				continue
			}
			kept = append(kept, g)
		}
		r.grants[id] = kept
	}
	return removed, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type linkRecorder struct {
	userID uuid.UUID
	email  string
}

func (l *linkRecorder) LinkLeads(_ context.Context, userID uuid.UUID, email string) (int, error) {
	l.userID, l.email = userID, email
	return 2, nil
}

func newTestService(repo *fakeRepo, bus events.Bus) *Service {
	return New(repo, testAuthConfig{}, bus, logger.Discard())
}

func parseToken(t *testing.T, raw string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	return claims
}

func TestSignUpIssuesAccessTokenWithUserRole(t *testing.T) {
	bus := &recordingBus{}
	svc := newTestService(newFakeRepo(), bus)

	resp, err := svc.SignUp(context.Background(), transport.SignUpRequest{Email: " Ola@Example.NO ", Password: "hemmelig123", FullName: "Ola <b>Nordmann</b>"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	claims := parseToken(t, resp.AccessToken)
	if claims["type"] != "access" {
		t.Fatalf("expected access token, got %v", claims["type"])
	}
	if got := claims["roles"].([]interface{}); len(got) != 1 || got[0] != "user" {
		t.Fatalf("expected [user] roles, got %v", got)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 3600 {
		t.Fatalf("unexpected token metadata %+v", resp)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	signedUp, ok := bus.events[0].(events.UserSignedUp)
	if !ok || signedUp.Email != "ola@example.no" {
		t.Fatalf("expected UserSignedUp for normalized email, got %#v", bus.events[0])
	}
}

func TestSignUpDuplicateEmailConflicts(t *testing.T) {
	svc := newTestService(newFakeRepo(), &recordingBus{})
	req := transport.SignUpRequest{Email: "kari@example.no", Password: "hemmelig123"}

	if _, err := svc.SignUp(context.Background(), req); err != nil {
		t.Fatalf("first sign up: %v", err)
	}
	req.Email = "KARI@example.no"
	if _, err := svc.SignUp(context.Background(), req); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	repo := newFakeRepo()
	hash, err := password.Hash("riktig-passord")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo.users[uuid.New()] = repository.User{ID: uuid.New(), Email: "per@example.no", PasswordHash: hash}
	svc := newTestService(repo, &recordingBus{})

	cases := []struct {
		name  string
		email string
		pass  string
	}{
		{"unknown email", "nobody@example.no", "riktig-passord"},
		{"wrong password", "per@example.no", "feil-passord"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SignIn(context.Background(), transport.SignInRequest{Email: tc.email, Password: tc.pass})
			if !apperr.Is(err, apperr.KindUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestSignInPublishesEvent(t *testing.T) {
	bus := &recordingBus{}
	svc := newTestService(newFakeRepo(), bus)
	req := transport.SignUpRequest{Email: "lise@example.no", Password: "hemmelig123"}
	if _, err := svc.SignUp(context.Background(), req); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if _, err := svc.SignIn(context.Background(), transport.SignInRequest{Email: "Lise@example.no", Password: "hemmelig123"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if _, ok := bus.events[len(bus.events)-1].(events.UserSignedIn); !ok {
		t.Fatalf("expected UserSignedIn, got %#v", bus.events[len(bus.events)-1])
	}
}

func TestSetUserRolesNormalizesAndValidates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})
	user, _ := repo.CreateUser(context.Background(), "a@example.no", "x", "", "user")

	resp, err := svc.SetUserRoles(context.Background(), user.ID, transport.SetRolesRequest{Roles: []string{"Owner", "business", "wizard", "owner"}})
	if err != nil {
		t.Fatalf("set roles: %v", err)
	}
	if len(resp.Roles) != 2 || resp.Roles[0] != "company_admin" || resp.Roles[1] != "company_user" {
		t.Fatalf("unexpected roles %v", resp.Roles)
	}

	if _, err := svc.SetUserRoles(context.Background(), user.ID, transport.SetRolesRequest{Roles: []string{"wizard"}}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown roles, got %v", err)
	}

	past := time.Now().Add(-time.Hour)
	if _, err := svc.SetUserRoles(context.Background(), user.ID, transport.SetRolesRequest{Roles: []string{"admin"}, ExpiresAt: &past}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for past expiry, got %v", err)
	}

	if _, err := svc.SetUserRoles(context.Background(), uuid.New(), transport.SetRolesRequest{Roles: []string{"admin"}}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCleanupExpiredRolesRemovesOnlyExpired(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})
	user, _ := repo.CreateUser(context.Background(), "b@example.no", "x", "", "user")

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	expired := now.Add(-time.Minute)
	active := now.Add(time.Hour)
	repo.grants[user.ID] = []repository.RoleGrant{
		{Role: "user"},
		{Role: "admin", ExpiresAt: &expired},
		{Role: "company_user", ExpiresAt: &active},
	}

	n, err := svc.CleanupExpiredRoles(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 || len(repo.grants[user.ID]) != 2 {
		t.Fatalf("expected one removal leaving two grants, got %d and %v", n, repo.grants[user.ID])
	}
}

func TestGrantRoleAndLinkLeads(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})
	user, _ := repo.CreateUser(context.Background(), "c@example.no", "x", "", "user")

	if err := svc.GrantRole(context.Background(), user.ID, roles.CompanyAdmin); err != nil {
		t.Fatalf("grant: %v", err)
	}
	profile, err := svc.GetMe(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get me: %v", err)
	}
	if len(profile.Roles) != 2 {
		t.Fatalf("expected two roles, got %v", profile.Roles)
	}

	if _, err := svc.LinkMyLeads(context.Background(), user.ID); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable without linker, got %v", err)
	}

	linker := &linkRecorder{}
	svc.SetLeadLinker(linker)
	resp, err := svc.LinkMyLeads(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if resp.Linked != 2 || linker.email != "c@example.no" || linker.userID != user.ID {
		t.Fatalf("linker called with %+v, resp %+v", linker, resp)
	}
}

func TestRepositoryFailureIsUnavailable(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	svc := newTestService(repo, &recordingBus{})

	_, err := svc.SignIn(context.Background(), transport.SignInRequest{Email: "x@example.no", Password: "whatever"})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
