// Package apperr defines the typed application error used across the API and
// the single translation point from storage and validation failures to HTTP
// results.
//
// Handlers never format error bodies themselves: they hand any error to the
// HTTP layer's fail helper, which calls Translate and renders the uniform
// {"success":false,"error":...} envelope. Translation rules are applied in
// order, first match wins:
//
//  1. missing document / malformed ObjectID  -> 404 "Resource not found"
//  2. unique constraint violated             -> 400 naming the duplicate field
//  3. request validation failure             -> 400 joined field messages
//  4. unparsable JSON body                   -> 400 "Invalid request body"
//  5. *apperr.Error (already carries status) -> passed through unchanged
//  6. anything else                          -> 500 "Server Error"
package apperr

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Error is an application error carrying a client-safe message and the HTTP
// status it should be rendered with.
type Error struct {
	Message string
	Status  int
}

// New constructs an Error with the given message and HTTP status code.
func New(message string, status int) *Error {
	return &Error{Message: message, Status: status}
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Convenience constructors for the common taxonomy.

// NotFound builds a 404 error.
func NotFound(msg string) *Error { return New(msg, http.StatusNotFound) }

// BadRequest builds a 400 error.
func BadRequest(msg string) *Error { return New(msg, http.StatusBadRequest) }

// Unauthorized builds a 401 error. Ownership violations use this status as
// well: the API has always answered 401 there and clients depend on it.
func Unauthorized(msg string) *Error { return New(msg, http.StatusUnauthorized) }

// Forbidden builds a 403 error, used only for role-gate failures.
func Forbidden(msg string) *Error { return New(msg, http.StatusForbidden) }

// dupKeyRE extracts the offending field name from a Mongo E11000 message,
// e.g. `... index: email_1 dup key: { email: "a@b.com" }`.
var dupKeyRE = regexp.MustCompile(`dup key: \{ (\w+)`)

// Translate maps any error to the (status, message) pair to respond with.
// Unexpected errors collapse to 500 with a generic message; callers are
// expected to log the original server-side.
func Translate(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	// 1. Absent documents and malformed identifiers both read as "not there".
	// ObjectIDFromHex reports wrong-length input as ErrInvalidHex but hands
	// back the raw hex decode error for non-hex characters, so both shapes
	// are matched here.
	if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) ||
		errors.As(err, new(hex.InvalidByteError)) || errors.Is(err, hex.ErrLength) {
		return http.StatusNotFound, "Resource not found"
	}

	// 2. Unique index violations.
	if mongo.IsDuplicateKeyError(err) {
		if m := dupKeyRE.FindStringSubmatch(err.Error()); m != nil {
			return http.StatusBadRequest, "Duplicate field value entered: " + m[1]
		}
		return http.StatusBadRequest, "Duplicate field value entered"
	}

	// 3. Request body validation failures (gin binding).
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return http.StatusBadRequest, strings.Join(msgs, ", ")
	}

	// 4. Unparsable request bodies are the client's fault, not ours.
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest, "Invalid request body"
	}

	// 5. Typed application errors pass through unchanged.
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status, ae.Message
	}

	// 6. Everything else is an internal failure; hide the detail.
	return http.StatusInternalServerError, "Server Error"
}

// fieldMessage renders one validator failure as a short client message.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Please add a " + strings.ToLower(fe.Field())
	case "email":
		return "Please add a valid email"
	case "min":
		return strings.ToLower(fe.Field()) + " must be at least " + fe.Param()
	case "max":
		return strings.ToLower(fe.Field()) + " can not be more than " + fe.Param()
	case "oneof":
		return strings.ToLower(fe.Field()) + " must be one of: " + fe.Param()
	default:
		return "Invalid value for " + strings.ToLower(fe.Field())
	}
}
