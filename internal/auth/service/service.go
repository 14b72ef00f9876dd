package service

import (
	"context"
	"errors"
	"time"

	"homni_backend/internal/auth/password"
	"homni_backend/internal/auth/repository"
	"homni_backend/internal/auth/transport"
	"homni_backend/internal/events"
	"homni_backend/internal/shared/roles"
	"homni_backend/platform/apperr"
	"homni_backend/platform/config"
	"homni_backend/platform/logger"
	"homni_backend/platform/sanitize"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType = "access"
	bearerTokenType = "Bearer"

	msgInvalidCredentials = "invalid credentials"
	msgUserNotFound       = "user not found"
)

// LeadLinker attaches anonymously submitted leads to a user by e-mail.
type LeadLinker interface {
	LinkLeads(ctx context.Context, userID uuid.UUID, email string) (int, error)
}

type Service struct {
	repo   repository.AuthRepository
	cfg    config.AuthServiceConfig
	bus    events.Bus
	log    *logger.Logger
	linker LeadLinker
	now    func() time.Time
}

func New(repo repository.AuthRepository, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log, now: time.Now}
}

// SetLeadLinker enables POST /users/me/link-leads. Set by the composition root
// once the leads module exists.
func (s *Service) SetLeadLinker(l LeadLinker) {
	s.linker = l
}

func (s *Service) SignUp(ctx context.Context, req transport.SignUpRequest) (transport.AuthResponse, error) {
	email := sanitize.Email(req.Email)
	if email == "" {
		return transport.AuthResponse{}, apperr.Validation("email is required")
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.AuthResponse{}, apperr.Validation("password cannot be used")
	}

	user, err := s.repo.CreateUser(ctx, email, hash, sanitize.Text(req.FullName), string(roles.User))
	if errors.Is(err, repository.ErrEmailTaken) {
		s.log.AuthEvent("sign_up", email, false, "email taken")
		return transport.AuthResponse{}, apperr.Conflict("email already registered")
	}
	if err != nil {
		s.log.DatabaseError("auth.create_user", err)
		return transport.AuthResponse{}, apperr.Unavailable(err)
	}

	resp, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	s.log.AuthEvent("sign_up", email, true, "")
	s.bus.Publish(ctx, events.UserSignedUp{BaseEvent: events.NewBaseEvent(), UserID: user.ID, Email: user.Email})
	return resp, nil
}

func (s *Service) SignIn(ctx context.Context, req transport.SignInRequest) (transport.AuthResponse, error) {
	email := sanitize.Email(req.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.AuthEvent("sign_in", email, false, "unknown email")
		return transport.AuthResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		s.log.DatabaseError("auth.get_user_by_email", err)
		return transport.AuthResponse{}, apperr.Unavailable(err)
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("sign_in", email, false, "wrong password")
		return transport.AuthResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	resp, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	s.log.AuthEvent("sign_in", email, true, "")
	s.bus.Publish(ctx, events.UserSignedIn{BaseEvent: events.NewBaseEvent(), UserID: user.ID, Email: user.Email})
	return resp, nil
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	userRoles, err := s.roles(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	return transport.ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Roles:     userRoles,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}

// SetUserRoles replaces the roles of a user. Unknown role names are dropped;
// a request with no known role is rejected.
func (s *Service) SetUserRoles(ctx context.Context, userID uuid.UUID, req transport.SetRolesRequest) (transport.RolesResponse, error) {
	normalized := roles.NormalizeAll(req.Roles)
	if len(normalized) == 0 {
		return transport.RolesResponse{}, apperr.Validation("no valid roles given")
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return transport.RolesResponse{}, apperr.Validation("expiresAt must be in the future")
	}

	grants := make([]repository.RoleGrant, 0, len(normalized))
	for _, r := range normalized {
		grants = append(grants, repository.RoleGrant{Role: string(r), ExpiresAt: req.ExpiresAt})
	}

	err := s.repo.SetUserRoles(ctx, userID, grants)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.RolesResponse{}, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		s.log.DatabaseError("auth.set_user_roles", err)
		return transport.RolesResponse{}, apperr.Unavailable(err)
	}

	s.log.Info("user roles replaced", "userId", userID, "roles", roles.Strings(normalized))
	return transport.RolesResponse{UserID: userID, Roles: roles.Strings(normalized)}, nil
}

// GrantRole adds a permanent role to a user.
func (s *Service) GrantRole(ctx context.Context, userID uuid.UUID, role roles.Role) error {
	err := s.repo.GrantRole(ctx, userID, string(role))
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		s.log.DatabaseError("auth.grant_role", err)
		return apperr.Unavailable(err)
	}
	return nil
}

// CleanupExpiredRoles deletes role rows whose expiry has passed.
func (s *Service) CleanupExpiredRoles(ctx context.Context) (int64, error) {
	n, err := s.repo.CleanupExpiredRoles(ctx, s.now())
	if err != nil {
		s.log.DatabaseError("auth.cleanup_expired_roles", err)
		return 0, apperr.Unavailable(err)
	}
	if n > 0 {
		s.log.Info("expired roles removed", "count", n)
	}
	return n, nil
}

// LinkMyLeads claims leads submitted anonymously with the user's own e-mail.
func (s *Service) LinkMyLeads(ctx context.Context, userID uuid.UUID) (transport.LinkLeadsResponse, error) {
	if s.linker == nil {
		return transport.LinkLeadsResponse{}, apperr.Unavailable(errors.New("lead linking not configured"))
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return transport.LinkLeadsResponse{}, err
	}

	n, err := s.linker.LinkLeads(ctx, user.ID, user.Email)
	if err != nil {
		return transport.LinkLeadsResponse{}, err
	}
	return transport.LinkLeadsResponse{Linked: n}, nil
}

func (s *Service) user(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		s.log.DatabaseError("auth.get_user_by_id", err)
		return repository.User{}, apperr.Unavailable(err)
	}
	return user, nil
}

func (s *Service) roles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	raw, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		s.log.DatabaseError("auth.get_user_roles", err)
		return nil, apperr.Unavailable(err)
	}
	return roles.Strings(roles.NormalizeAll(raw)), nil
}

func (s *Service) issueToken(ctx context.Context, userID uuid.UUID) (transport.AuthResponse, error) {
	userRoles, err := s.roles(ctx, userID)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	ttl := s.cfg.GetAccessTokenTTL()
	token, err := s.signJWT(userID, userRoles, ttl)
	if err != nil {
		return transport.AuthResponse{}, apperr.Wrap(apperr.KindInternal, "could not issue token", err)
	}

	return transport.AuthResponse{
		AccessToken: token,
		TokenType:   bearerTokenType,
		ExpiresIn:   int64(ttl.Seconds()),
		Roles:       userRoles,
	}, nil
}

func (s *Service) signJWT(userID uuid.UUID, userRoles []string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  accessTokenType,
		"roles": userRoles,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
