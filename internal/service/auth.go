package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/form"
	"github.com/sakif/qaforum/internal/model"
)

// AuthService handles registration, login and profile lookup.
//
//	AuthHandler (HTTP) → AuthService → Memory (accounts)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	data      *Memory
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	data *Memory,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		data:      data,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is returned by a successful login or registration.
type AuthResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (*AuthResult, error) {
	in, err := form.Register(in)
	if err != nil {
		return nil, err
	}

	// bcrypt is slow; hash before taking the lock
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	s.data.mu.Lock()
	if s.data.accountByEmail(in.Email) != nil {
		s.data.mu.Unlock()
		return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "Email is already registered", Field: "email"}
	}
	if s.data.usernameTaken(in.Username) {
		s.data.mu.Unlock()
		return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "Username is already taken", Field: "username"}
	}
	user := s.data.insertAccount(model.User{Username: in.Username, Email: in.Email}, hash)
	s.data.mu.Unlock()

	s.logger.Info("user registered", slog.Int64("userID", user.ID), slog.String("username", user.Username))
	return s.issue(user)
}

// Login checks email and password. Unknown emails and wrong passwords get
// the same answer.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	in, err := form.Login(model.LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	s.data.mu.Lock()
	acct := s.data.accountByEmail(in.Email)
	var user model.User
	var hash string
	if acct != nil {
		user, hash = acct.user, acct.hash
	}
	s.data.mu.Unlock()

	if acct == nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}
	if err := s.passwords.Verify(hash, in.Password); err != nil {
		if !errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Error("password check failed", slog.String("error", err.Error()))
		}
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return s.issue(user)
}

// Profile returns the account behind an authenticated request.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*model.User, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	acct, ok := s.data.accounts[userID]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprint(userID))
	}
	u := acct.user
	return &u, nil
}

// Logout revokes the presented token.
func (s *AuthService) Logout(token string) {
	s.tokens.Revoke(token)
}

func (s *AuthService) issue(user model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.Error("token generation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
