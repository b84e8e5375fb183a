package users

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/auth"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

const minPasswordLen = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,64}$`)

// Service manages accounts and issues session tokens.
type Service struct {
	Repo Repo
	Now  func() time.Time
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Session is the result of a successful login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// GoogleIdentity is the verified profile returned by the OAuth callback.
type GoogleIdentity struct {
	Sub     string
	Email   string
	Name    string
	Picture string
}

// Login checks a username and password and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		telemetry.Warn("auth.login_failed", map[string]any{"username": username, "company_id": u.CompanyID})
		return Session{}, ErrInvalidCredentials
	}
	return s.startSession(ctx, u, "", "")
}

// LoginGoogle signs in an already provisioned user by verified email.
// Unknown emails are rejected; accounts are created by admins only.
func (s *Service) LoginGoogle(ctx context.Context, id GoogleIdentity) (Session, error) {
	email := strings.TrimSpace(id.Email)
	if email == "" || id.Sub == "" {
		return Session{}, apperr.Validation("validation_error", "google identity is incomplete")
	}
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrNotProvisioned
		}
		return Session{}, err
	}
	if u.GoogleSub != "" && u.GoogleSub != id.Sub {
		return Session{}, ErrNotProvisioned
	}
	if u.Name == "" {
		u.Name = id.Name
	}
	return s.startSession(ctx, u, id.Sub, id.Picture)
}

func (s *Service) startSession(ctx context.Context, u User, googleSub, picture string) (Session, error) {
	at := s.now()
	if err := s.Repo.TouchLogin(ctx, u.ID, googleSub, at); err != nil {
		return Session{}, err
	}
	u.LastLoginAt = &at
	if googleSub != "" {
		u.GoogleSub = googleSub
	}
	token, err := auth.SignJWT(auth.Claims{
		Sub:       u.ID,
		CompanyID: u.CompanyID,
		Role:      u.Role,
		Email:     u.Email,
		Name:      displayName(u),
		Picture:   picture,
	})
	if err != nil {
		return Session{}, err
	}
	telemetry.Info("auth.login", map[string]any{"user_id": u.ID, "company_id": u.CompanyID, "google": googleSub != ""})
	return Session{Token: token, User: u}, nil
}

// CreateInput is the admin payload for a new account.
type CreateInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (s *Service) Create(ctx context.Context, companyID string, in CreateInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(in.Role)
	if in.Role == "" {
		in.Role = RoleOperator
	}
	if !usernamePattern.MatchString(in.Username) {
		return User{}, apperr.Validation("INVALID_USERNAME", "username must be 3-64 letters, digits, dots, dashes or underscores")
	}
	if !ValidRole(in.Role) {
		return User{}, apperr.Validation("INVALID_ROLE", "role must be admin, manager or operator")
	}
	if err := validateEmail(in.Email); err != nil {
		return User{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		Username:     in.Username,
		Email:        in.Email,
		Name:         in.Name,
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, companyID, id string) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID string) ([]User, error) {
	return s.Repo.List(ctx, companyID)
}

// UpdateInput changes profile fields; nil fields are left alone.
type UpdateInput struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (s *Service) Update(ctx context.Context, companyID, id string, in UpdateInput) (User, error) {
	u, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return User{}, err
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return User{}, err
		}
		u.Email = email
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Password != nil {
		hash, err := s.hash(*in.Password)
		if err != nil {
			return User{}, err
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// SetRole changes a user's role, keeping at least one admin per company.
func (s *Service) SetRole(ctx context.Context, companyID, id, role string) (User, error) {
	role = strings.TrimSpace(role)
	if !ValidRole(role) {
		return User{}, apperr.Validation("INVALID_ROLE", "role must be admin, manager or operator")
	}
	u, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return User{}, err
	}
	if u.Role == role {
		return u, nil
	}
	if u.Role == RoleAdmin {
		if err := s.ensureOtherAdmin(ctx, companyID); err != nil {
			return User{}, err
		}
	}
	u.Role = role
	u.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete removes a user. Callers cannot delete themselves or the last admin.
func (s *Service) Delete(ctx context.Context, companyID, actorID, id string) error {
	if id == actorID {
		return ErrSelfDelete
	}
	u, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	if u.Role == RoleAdmin {
		if err := s.ensureOtherAdmin(ctx, companyID); err != nil {
			return err
		}
	}
	return s.Repo.SoftDelete(ctx, companyID, id)
}

// EnsureAdmin creates username as an admin of companyID, or promotes it and
// resets its password when it already exists there.
func (s *Service) EnsureAdmin(ctx context.Context, companyID, username, password string) (User, bool, error) {
	existing, err := s.Repo.GetByUsername(ctx, strings.TrimSpace(username))
	switch {
	case errors.Is(err, ErrNotFound):
		u, err := s.Create(ctx, companyID, CreateInput{Username: username, Password: password, Role: RoleAdmin})
		return u, err == nil, err
	case err != nil:
		return User{}, false, err
	}
	if existing.CompanyID != companyID {
		return User{}, false, ErrUsernameTaken
	}
	hash, err := s.hash(password)
	if err != nil {
		return User{}, false, err
	}
	existing.PasswordHash = hash
	existing.Role = RoleAdmin
	existing.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, existing); err != nil {
		return User{}, false, err
	}
	return existing, false, nil
}

func (s *Service) ensureOtherAdmin(ctx context.Context, companyID string) error {
	n, err := s.Repo.CountAdmins(ctx, companyID)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "", apperr.Validation("WEAK_PASSWORD", "password must be at least 8 characters")
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("WEAK_PASSWORD", "password is too long")
		}
		return "", err
	}
	return string(b), nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("INVALID_EMAIL", "email address is invalid")
	}
	return nil
}

func displayName(u User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
