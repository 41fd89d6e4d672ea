package usecase

import "errors"

// Auth gate rejections. Each maps to a stable reason string returned to clients.
var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrTokenRevoked   = errors.New("token revoked")
	ErrTokenExpired   = errors.New("token expired")
	ErrMalformedToken = errors.New("malformed token")
	ErrUnknownSubject = errors.New("unknown token subject")
	ErrInvalidToken   = errors.New("invalid token")
)

var (
	// ErrInvalidCredentials indicates the provided identifier or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNothingToRevoke is returned by logout when the presented token cannot be parsed.
	ErrNothingToRevoke = errors.New("nothing to revoke")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")
	ErrMobileTaken     = errors.New("mobile number already registered")
	// ErrForbidden indicates the caller is authenticated but may not act on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput wraps request validation failures; the wrapped text is safe to show.
	ErrInvalidInput = errors.New("invalid input")
)

// Rejection reasons carried in 401 response bodies.
const (
	ReasonMissingToken   = "MissingToken"
	ReasonRevoked        = "Revoked"
	ReasonExpired        = "Expired"
	ReasonMalformedToken = "MalformedToken"
	ReasonUnknownSubject = "UnknownSubject"
	ReasonInvalidToken   = "InvalidToken"
)

// RejectionReason maps an Authenticate error to its client-facing reason.
// Anything unrecognised is reported as InvalidToken.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return ReasonMissingToken
	case errors.Is(err, ErrTokenRevoked):
		return ReasonRevoked
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, ErrMalformedToken):
		return ReasonMalformedToken
	case errors.Is(err, ErrUnknownSubject):
		return ReasonUnknownSubject
	default:
		return ReasonInvalidToken
	}
}
