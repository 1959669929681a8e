package domain

// Kind classifies an expected failure so the transport layer can map it to
// a status code without inspecting individual errors.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Error is a typed, expected failure crossing the core boundary. Only truly
// unexpected faults (store unavailable) travel as plain errors.
type Error struct {
	Code        string
	Description string
	Kind        Kind
}

func (e *Error) Error() string { return e.Code + ": " + e.Description }

// Is matches errors by code, so a WithDescription copy still satisfies
// errors.Is against its base value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDescription returns a copy carrying a more specific description while
// keeping the code and kind, and therefore the errors.Is identity.
func (e *Error) WithDescription(desc string) *Error {
	return &Error{Code: e.Code, Description: desc, Kind: e.Kind}
}

// The full set of expected credential-flow failures. Handlers compare with
// errors.Is against these values.
var (
	ErrUserNotFound = &Error{
		Code: "user.not_found", Description: "User was not found.", Kind: KindNotFound}

	ErrDuplicateEmail = &Error{
		Code: "user.duplicate_email", Description: "A user with this email already exists.", Kind: KindConflict}

	ErrInvalidCredentials = &Error{
		Code: "user.invalid_credentials", Description: "Invalid email or password.", Kind: KindUnauthorized}

	ErrEmailNotConfirmed = &Error{
		Code: "user.email_not_confirmed", Description: "Email has not been confirmed.", Kind: KindUnauthorized}

	ErrInvalidRefreshToken = &Error{
		Code: "user.invalid_refresh_token", Description: "The refresh token is invalid or expired.", Kind: KindUnauthorized}

	ErrLockedOut = &Error{
		Code: "user.locked_out", Description: "This account has been locked out. Please try again later.", Kind: KindUnauthorized}

	ErrInvalidResetToken = &Error{
		Code: "user.invalid_reset_token", Description: "The password reset token is invalid or expired.", Kind: KindValidation}

	ErrRegistrationFailed = &Error{
		Code: "user.registration_failed", Description: "User registration failed.", Kind: KindValidation}

	ErrEmailConfirmationFailed = &Error{
		Code: "user.email_confirmation_failed", Description: "Email confirmation failed.", Kind: KindValidation}
)
