package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"isdn/internal/domain"
	"isdn/internal/repos"
)

// SessionStore persists sessions server-side. Get returns repos.ErrNotFound for an unknown id.
type SessionStore interface {
	Put(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, sid string) (domain.Session, error)
	Delete(ctx context.Context, sid string) error
	DeleteUser(ctx context.Context, userID string) error
}

type AuthService struct {
	Users    *repos.UserRepo
	Sessions SessionStore
	Now      func() time.Time
}

func NewAuthService(users *repos.UserRepo, sessions SessionStore) *AuthService {
	return &AuthService{Users: users, Sessions: sessions, Now: time.Now}
}

// Login checks the password and opens a new session.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Session, error) {
	u, err := s.Users.ByUsername(ctx, username)
	if errors.Is(err, repos.ErrNotFound) {
		return domain.Session{}, ErrBadCreds
	}
	if err != nil {
		return domain.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return domain.Session{}, ErrBadCreds
	}
	sess := domain.NewSession(uuid.NewString(), u, s.Now())
	if err := s.Sessions.Put(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Current resolves sid to its session. An empty or unknown sid yields ErrNotFound.
// Name, role and hub come from the user row, not from what the store kept at login.
func (s *AuthService) Current(ctx context.Context, sid string) (domain.Session, error) {
	if sid == "" {
		return domain.Session{}, ErrNotFound
	}
	sess, err := s.Sessions.Get(ctx, sid)
	if err != nil {
		return domain.Session{}, err
	}
	u, err := s.Users.ByID(ctx, sess.UserID)
	if errors.Is(err, repos.ErrNotFound) {
		_ = s.Sessions.Delete(ctx, sid)
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	return domain.NewSession(sess.ID, u, sess.CreatedAt), nil
}

func (s *AuthService) Invalidate(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, sid)
}

// DeleteUser removes an account and ends every session it holds. actor cannot
// delete their own account.
func (s *AuthService) DeleteUser(ctx context.Context, actor domain.Session, id string) (domain.User, error) {
	if actor.UserID == id {
		return domain.User{}, fmt.Errorf("%w: cannot delete your own account", ErrInvalid)
	}
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Sessions.DeleteUser(ctx, id); err != nil {
		return u, err
	}
	return u, s.Users.Delete(ctx, id)
}

// HashPassword is shared by every place that stores a new login.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}
