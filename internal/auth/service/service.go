// Package service issues access tokens for counsellors.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"admissions_crm_backend/internal/auth/transport"
	"admissions_crm_backend/internal/counsellors/repository"
	counsellorsvc "admissions_crm_backend/internal/counsellors/service"
	counsellortransport "admissions_crm_backend/internal/counsellors/transport"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenType = "access"

var errInvalidCredentials = apperr.Unauthorized("invalid email or password")

// Store is the slice of the counsellor directory that login needs.
type Store interface {
	FindActiveByEmail(ctx context.Context, email string) (repository.Counsellor, error)
	GetByID(ctx context.Context, id string) (repository.Counsellor, error)
}

type Service struct {
	repo Store
	cfg  config.AuthServiceConfig
	log  *logger.Logger
	now  func() time.Time
}

func New(repo Store, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log, now: time.Now}
}

// Login checks the password of an active counsellor and signs an access token.
func (s *Service) Login(ctx context.Context, email, password string) (transport.LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	c, err := s.repo.FindActiveByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.AuthEvent("login", email, false, "unknown or inactive counsellor")
		return transport.LoginResponse{}, errInvalidCredentials
	}
	if err != nil {
		return transport.LoginResponse{}, apperr.Internal("lookup counsellor failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		s.log.AuthEvent("login", email, false, "password mismatch")
		return transport.LoginResponse{}, errInvalidCredentials
	}

	ttl := s.cfg.GetAccessTokenTTL()
	token, err := s.signAccessToken(c, ttl)
	if err != nil {
		return transport.LoginResponse{}, apperr.Internal("sign token failed", err)
	}

	s.log.AuthEvent("login", email, true, "")
	return transport.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		Counsellor:  counsellorsvc.ToResponse(c),
	}, nil
}

// Me returns the profile behind an authenticated token.
func (s *Service) Me(ctx context.Context, counsellorID string) (counsellortransport.CounsellorResponse, error) {
	c, err := s.repo.GetByID(ctx, counsellorID)
	if errors.Is(err, repository.ErrNotFound) {
		return counsellortransport.CounsellorResponse{}, apperr.NotFound("counsellor not found")
	}
	if err != nil {
		return counsellortransport.CounsellorResponse{}, apperr.Internal("load counsellor failed", err)
	}
	return counsellorsvc.ToResponse(c), nil
}

func (s *Service) signAccessToken(c repository.Counsellor, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  c.ID,
		"role": c.Role,
		"type": accessTokenType,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
