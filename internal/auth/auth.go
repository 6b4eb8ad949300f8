// Package auth talks to the Nightjar authentication service: sign-in
// and its follow-up challenges, sign-up confirmation, password reset,
// and session refresh. The rest of the client consumes it through the
// Provider interface so tests can substitute a fake.
package auth

import "context"

// NextStep tells the caller what the sign-in flow needs next.
type NextStep string

const (
	// StepDone means sign-in completed; the result carries the session
	// and refresh tokens to persist.
	StepDone NextStep = "done"
	// StepConfirmationNeeded means the account's sign-up confirmation
	// code is outstanding.
	StepConfirmationNeeded NextStep = "confirmation_needed"
	// StepPasswordResetRequired means the backend forced a reset before
	// this account may sign in.
	StepPasswordResetRequired NextStep = "password_reset_required"
	// StepMFARequired means a second factor is needed; MFAKind says
	// which.
	StepMFARequired NextStep = "mfa_required"
)

// MFAKind is the second-factor sub-type requested by the backend.
type MFAKind string

const (
	MFATOTP MFAKind = "totp"
	MFASMS  MFAKind = "sms"
)

// SignInResult is the outcome of one sign-in (or MFA confirmation) step.
type SignInResult struct {
	Step         NextStep `json:"next_step"`
	MFAKind      MFAKind  `json:"mfa_kind,omitempty"`
	SessionToken string   `json:"session_token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
}

// ResetChallenge describes where a password-reset code was delivered.
type ResetChallenge struct {
	Status      string `json:"status"`
	Destination string `json:"destination,omitempty"`
}

// Provider is the authentication surface the client consumes.
type Provider interface {
	// SignIn starts a session with the given identifier and secret. The
	// result's Step says whether the session is ready or a challenge
	// (confirmation, reset, MFA) must be completed first.
	SignIn(ctx context.Context, identifier, secret string) (*SignInResult, error)

	// ConfirmSignIn completes an MFA challenge issued by SignIn.
	ConfirmSignIn(ctx context.Context, identifier, code string) (*SignInResult, error)

	// RefreshSession exchanges the stored refresh token for a fresh
	// session token.
	RefreshSession(ctx context.Context) (string, error)

	// SignOut invalidates the session on the backend.
	SignOut(ctx context.Context) error

	// ConfirmSignUp submits the sign-up confirmation code.
	ConfirmSignUp(ctx context.Context, identifier, code string) error

	// RequestPasswordReset starts a password reset for the identifier.
	RequestPasswordReset(ctx context.Context, identifier string) (*ResetChallenge, error)

	// ConfirmPasswordReset completes a password reset with the delivered
	// code and the new secret.
	ConfirmPasswordReset(ctx context.Context, identifier, code, newSecret string) error
}
