package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/auth"
	"github.com/tbourn/go-bootcamp-backend/internal/config"
	"github.com/tbourn/go-bootcamp-backend/internal/domain"
)

// fakeUserRepo implements UserRepo over an in-memory map. Update understands
// the field names the services actually write.
type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User

	updateCalls int
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, db *mongo.Database, u *domain.User) (*domain.User, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{
				Code:    11000,
				Message: `E11000 dup key: { email: "` + u.Email + `" }`,
			}}}
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) Get(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, db *mongo.Database, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) GetByResetToken(ctx context.Context, db *mongo.Database, hashedToken string, now time.Time) (*domain.User, error) {
	for _, u := range f.users {
		if u.ResetPasswordToken == hashedToken && u.ResetPasswordExpire.After(now) {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) Update(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.User, error) {
	f.updateCalls++
	u, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "email":
			u.Email = v.(string)
		case "role":
			u.Role = v.(string)
		case "password":
			u.Password = v.(string)
		case "resetPasswordToken":
			u.ResetPasswordToken = v.(string)
		case "resetPasswordExpire":
			u.ResetPasswordExpire = v.(time.Time)
		}
	}
	return u, nil
}

func (f *fakeUserRepo) ClearResetToken(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	if u, ok := f.users[id]; ok {
		u.ResetPasswordToken = ""
		u.ResetPasswordExpire = time.Time{}
	}
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	if _, ok := f.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.users, id)
	return nil
}

// fakeMailer records outbound mail and can be told to fail.
type fakeMailer struct {
	err  error
	to   string
	body string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.to = to
	f.body = body
	return nil
}

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expire: time.Hour}
}

func newAuthService(repo *fakeUserRepo, mailer *fakeMailer) *AuthService {
	if mailer == nil {
		mailer = &fakeMailer{}
	}
	return &AuthService{Repo: repo, Mail: mailer, JWT: testJWT()}
}

func TestRegister_HashesPasswordAndIssuesToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo, nil)

	u, token, err := svc.Register(context.Background(), "John", "john@example.com", "123456", domain.RolePublisher)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != domain.RolePublisher {
		t.Fatalf("role = %q", u.Role)
	}
	if u.Password == "123456" || !checkPassword(u.Password, "123456") {
		t.Fatalf("password not hashed correctly: %q", u.Password)
	}

	claims, err := auth.Parse(token, "test-secret")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != u.ID.Hex() || claims.Role != domain.RolePublisher {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestRegister_AdminRequestDowngraded(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), nil)
	u, _, err := svc.Register(context.Background(), "Eve", "eve@example.com", "123456", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != domain.RoleUser {
		t.Fatalf("role = %q; admin must not be self-assignable", u.Role)
	}
}

func TestLogin(t *testing.T) {
	hash, err := hashPassword("123456")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	user := &domain.User{ID: primitive.NewObjectID(), Email: "john@example.com", Password: hash, Role: domain.RoleUser}
	svc := newAuthService(newFakeUserRepo(user), nil)

	u, token, err := svc.Login(context.Background(), "john@example.com", "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != user.ID || token == "" {
		t.Fatalf("login returned %+v / %q", u, token)
	}

	// Unknown email and wrong password must be indistinguishable.
	for _, pair := range [][2]string{
		{"nobody@example.com", "123456"},
		{"john@example.com", "wrong"},
	} {
		_, _, err := svc.Login(context.Background(), pair[0], pair[1])
		if statusOf(t, err) != http.StatusUnauthorized || err.Error() != "Invalid credentials" {
			t.Fatalf("Login(%v) err = %v", pair, err)
		}
	}
}

func TestUpdatePassword(t *testing.T) {
	hash, _ := hashPassword("old-pass")
	user := &domain.User{ID: primitive.NewObjectID(), Email: "a@b.c", Password: hash, Role: domain.RoleUser}
	svc := newAuthService(newFakeUserRepo(user), nil)

	// Wrong current password.
	_, _, err := svc.UpdatePassword(context.Background(), user.ID, "nope", "new-pass")
	if statusOf(t, err) != http.StatusUnauthorized || err.Error() != "Password is incorrect" {
		t.Fatalf("err = %v", err)
	}

	// Correct current password rotates the hash and issues a token.
	_, token, err := svc.UpdatePassword(context.Background(), user.ID, "old-pass", "new-pass")
	if err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if token == "" || !checkPassword(user.Password, "new-pass") {
		t.Fatalf("password not rotated")
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	hash, _ := hashPassword("old-pass")
	user := &domain.User{ID: primitive.NewObjectID(), Email: "john@example.com", Password: hash, Role: domain.RoleUser}
	repo := newFakeUserRepo(user)
	mailer := &fakeMailer{}
	svc := newAuthService(repo, mailer)

	if err := svc.ForgotPassword(context.Background(), "john@example.com", "https://api.example.com/api/v1/auth"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if mailer.to != "john@example.com" {
		t.Fatalf("mail sent to %q", mailer.to)
	}
	if user.ResetPasswordToken == "" || !user.ResetPasswordExpire.After(time.Now()) {
		t.Fatalf("token not stored: %+v", user)
	}

	// The raw token travels only in the mailed URL; extract it.
	idx := strings.LastIndex(mailer.body, "/resetpassword/")
	if idx < 0 {
		t.Fatalf("reset URL missing from body: %q", mailer.body)
	}
	raw := mailer.body[idx+len("/resetpassword/"):]
	if end := strings.IndexAny(raw, " \r\n"); end >= 0 {
		raw = raw[:end]
	}
	if hashToken(raw) != user.ResetPasswordToken {
		t.Fatalf("stored token is not the sha256 of the mailed token")
	}

	// Consume the token.
	_, token, err := svc.ResetPassword(context.Background(), raw, "new-pass")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if token == "" || !checkPassword(user.Password, "new-pass") {
		t.Fatal("password not replaced")
	}
	if user.ResetPasswordToken != "" {
		t.Fatal("token must be cleared after use")
	}

	// A second use fails.
	if _, _, err := svc.ResetPassword(context.Background(), raw, "again"); err == nil || err.Error() != "Invalid token" {
		t.Fatalf("err = %v", err)
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), nil)
	err := svc.ForgotPassword(context.Background(), "ghost@example.com", "base")
	if statusOf(t, err) != http.StatusNotFound || err.Error() != "There is no user with that email" {
		t.Fatalf("err = %v", err)
	}
}

func TestForgotPassword_MailFailureClearsToken(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Email: "john@example.com", Role: domain.RoleUser}
	repo := newFakeUserRepo(user)
	svc := newAuthService(repo, &fakeMailer{err: errors.New("smtp down")})

	err := svc.ForgotPassword(context.Background(), "john@example.com", "base")
	if statusOf(t, err) != http.StatusInternalServerError || err.Error() != "Email could not be sent" {
		t.Fatalf("err = %v", err)
	}
	if user.ResetPasswordToken != "" {
		t.Fatal("token must be rolled back when mail fails")
	}
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	raw, hashed := "deadbeef", hashToken("deadbeef")
	user := &domain.User{
		ID: primitive.NewObjectID(), Email: "a@b.c", Role: domain.RoleUser,
		ResetPasswordToken: hashed, ResetPasswordExpire: time.Now().Add(-time.Minute),
	}
	svc := newAuthService(newFakeUserRepo(user), nil)

	_, _, err := svc.ResetPassword(context.Background(), raw, "new-pass")
	if statusOf(t, err) != http.StatusBadRequest || err.Error() != "Invalid token" {
		t.Fatalf("err = %v", err)
	}
}
