package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestTranslate_Nil(t *testing.T) {
	status, msg := Translate(nil)
	if status != http.StatusOK || msg != "" {
		t.Fatalf("Translate(nil) = %d %q", status, msg)
	}
}

func TestTranslate_NotFound(t *testing.T) {
	// A 24-char id with non-hex characters makes ObjectIDFromHex return the
	// raw hex decode error rather than ErrInvalidHex.
	_, nonHexErr := primitive.ObjectIDFromHex("zzzzzzzzzzzzzzzzzzzzzzzz")
	if nonHexErr == nil {
		t.Fatal("expected non-hex id to be rejected")
	}
	_, shortErr := primitive.ObjectIDFromHex("abc")
	if shortErr == nil {
		t.Fatal("expected short id to be rejected")
	}

	for _, err := range []error{
		mongo.ErrNoDocuments,
		primitive.ErrInvalidHex,
		nonHexErr,
		shortErr,
		fmt.Errorf("get: %w", mongo.ErrNoDocuments),
	} {
		status, msg := Translate(err)
		if status != http.StatusNotFound || msg != "Resource not found" {
			t.Fatalf("Translate(%v) = %d %q", err, status, msg)
		}
	}
}

func TestTranslate_DuplicateKey(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: devcamper.users index: email_1 dup key: { email: "a@b.com" }`,
	}}}

	status, msg := Translate(err)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if msg != "Duplicate field value entered: email" {
		t.Fatalf("msg = %q", msg)
	}
}

func TestTranslate_DuplicateKey_UnparsableMessage(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error",
	}}}

	status, msg := Translate(err)
	if status != http.StatusBadRequest || msg != "Duplicate field value entered" {
		t.Fatalf("Translate = %d %q", status, msg)
	}
}

func TestTranslate_ValidationErrors(t *testing.T) {
	type payload struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
	}
	v := validator.New()
	err := v.Struct(payload{Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	status, msg := Translate(err)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(msg, "Please add a name") || !strings.Contains(msg, "Please add a valid email") {
		t.Fatalf("msg = %q", msg)
	}
}

func TestTranslate_MalformedBody(t *testing.T) {
	var payload struct {
		Name string `json:"name"`
	}
	for _, raw := range []string{"{not json", `{"name": 42}`, ""} {
		err := json.Unmarshal([]byte(raw), &payload)
		if raw == "" {
			err = io.EOF // what ShouldBindJSON yields for an empty body
		}
		if err == nil {
			t.Fatalf("expected %q to fail decoding", raw)
		}
		status, msg := Translate(err)
		if status != http.StatusBadRequest || msg != "Invalid request body" {
			t.Fatalf("Translate(%v) = %d %q", err, status, msg)
		}
	}
}

func TestTranslate_TypedErrorPassthrough(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Unauthorized("Not authorized to access this route"))
	status, msg := Translate(err)
	if status != http.StatusUnauthorized || msg != "Not authorized to access this route" {
		t.Fatalf("Translate = %d %q", status, msg)
	}
}

func TestTranslate_UnknownCollapsesTo500(t *testing.T) {
	status, msg := Translate(errors.New("dial tcp: connection refused"))
	if status != http.StatusInternalServerError || msg != "Server Error" {
		t.Fatalf("Translate = %d %q", status, msg)
	}
}

func TestConstructors(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{NotFound("x"), http.StatusNotFound},
		{BadRequest("x"), http.StatusBadRequest},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{New("x", http.StatusTeapot), http.StatusTeapot},
	}
	for _, tc := range cases {
		if tc.err.Status != tc.status || tc.err.Error() != "x" {
			t.Fatalf("constructor produced %+v", tc.err)
		}
	}
}
