package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/apperr"
	"github.com/tbourn/go-bootcamp-backend/internal/auth"
	"github.com/tbourn/go-bootcamp-backend/internal/config"
	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/mail"
)

// resetTokenTTL is how long a password-reset token stays valid.
const resetTokenTTL = 10 * time.Minute

// AuthService implements registration, login, profile updates, and the
// password-reset flow. Credential failures always surface as the same
// generic 401 so the API does not leak which half of the pair was wrong.
type AuthService struct {
	DB   *mongo.Database
	Repo UserRepo
	Mail mail.Sender
	JWT  config.JWTConfig
}

// Register creates an account with a hashed password and issues a token.
// The publisher role may be requested at registration; admin may not.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (*domain.User, string, error) {
	if role == domain.RoleAdmin {
		role = domain.RoleUser
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, "", err
	}
	u, err := s.Repo.Create(ctx, s.DB, &domain.User{
		Name:     name,
		Email:    email,
		Role:     role,
		Password: hash,
	})
	if err != nil {
		return nil, "", err
	}
	return s.withToken(u)
}

// Login verifies the email/password pair and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.Repo.GetByEmail(ctx, s.DB, email)
	if err != nil {
		return nil, "", apperr.Unauthorized("Invalid credentials")
	}
	if !checkPassword(u.Password, password) {
		return nil, "", apperr.Unauthorized("Invalid credentials")
	}
	return s.withToken(u)
}

// Me returns the authenticated user's current record.
func (s *AuthService) Me(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return s.Repo.Get(ctx, s.DB, id)
}

// UpdateDetails changes the account's name and email.
func (s *AuthService) UpdateDetails(ctx context.Context, id primitive.ObjectID, name, email string) (*domain.User, error) {
	return s.Repo.Update(ctx, s.DB, id, bson.M{"name": name, "email": email})
}

// UpdatePassword sets a new password after verifying the current one, and
// issues a fresh token.
func (s *AuthService) UpdatePassword(ctx context.Context, id primitive.ObjectID, current, next string) (*domain.User, string, error) {
	u, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, "", err
	}
	if !checkPassword(u.Password, current) {
		return nil, "", apperr.Unauthorized("Password is incorrect")
	}
	hash, err := hashPassword(next)
	if err != nil {
		return nil, "", err
	}
	u, err = s.Repo.Update(ctx, s.DB, id, bson.M{"password": hash})
	if err != nil {
		return nil, "", err
	}
	return s.withToken(u)
}

// ForgotPassword generates a reset token, stores its sha256 digest with a
// 10-minute expiry, and emails the raw token to the account. If the email
// cannot be sent the stored token is cleared and a 500 is returned.
func (s *AuthService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	u, err := s.Repo.GetByEmail(ctx, s.DB, email)
	if err != nil {
		return apperr.NotFound("There is no user with that email")
	}

	raw, hashed, err := newResetToken()
	if err != nil {
		return err
	}
	_, err = s.Repo.Update(ctx, s.DB, u.ID, bson.M{
		"resetPasswordToken":  hashed,
		"resetPasswordExpire": time.Now().UTC().Add(resetTokenTTL),
	})
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/resetpassword/%s", resetURLBase, raw)
	if err := s.Mail.Send(u.Email, "Password reset token", mail.ResetPasswordBody(resetURL)); err != nil {
		// Roll the token back so a half-sent reset cannot linger.
		_ = s.Repo.ClearResetToken(ctx, s.DB, u.ID)
		return apperr.New("Email could not be sent", http.StatusInternalServerError)
	}
	return nil
}

// ResetPassword consumes a raw reset token: it must hash to a stored,
// unexpired token. On success the password is replaced, the token cleared,
// and a fresh session token issued.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, password string) (*domain.User, string, error) {
	hashed := hashToken(rawToken)
	u, err := s.Repo.GetByResetToken(ctx, s.DB, hashed, time.Now().UTC())
	if err != nil {
		return nil, "", apperr.BadRequest("Invalid token")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, "", err
	}
	u, err = s.Repo.Update(ctx, s.DB, u.ID, bson.M{"password": hash})
	if err != nil {
		return nil, "", err
	}
	if err := s.Repo.ClearResetToken(ctx, s.DB, u.ID); err != nil {
		return nil, "", err
	}
	return s.withToken(u)
}

// withToken pairs a user with a freshly signed session token.
func (s *AuthService) withToken(u *domain.User) (*domain.User, string, error) {
	token, err := auth.Sign(u.ID.Hex(), u.Role, s.JWT)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// newResetToken returns a random token and its sha256 hex digest. Only the
// digest is persisted; the raw token travels by email.
func newResetToken() (raw, hashed string, err error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

// hashToken computes the sha256 hex digest of a raw reset token.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
