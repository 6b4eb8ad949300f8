package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/nightjar-app/nightjar-go/internal/app"
	"github.com/nightjar-app/nightjar-go/internal/auth"
)

// errNoAuth is returned by commands that need the auth service when the
// client runs on a static env token.
var errNoAuth = errors.New("authentication is unavailable with env token storage")

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "sign in and store the session token",
		ArgsUsage: "<identifier>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			identifier := cmd.Args().First()
			if identifier == "" {
				return fmt.Errorf("identifier argument required")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			if a.Auth == nil {
				return errNoAuth
			}

			secret, err := readSecret("Password: ")
			if err != nil {
				return err
			}

			result, err := a.Auth.SignIn(ctx, identifier, secret)
			if err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}

			return completeSignIn(ctx, a, identifier, result)
		},
	}
}

// completeSignIn branches on the sign-in next step, prompting for a
// second factor when required.
func completeSignIn(ctx context.Context, a *app.App, identifier string, result *auth.SignInResult) error {
	switch result.Step {
	case auth.StepDone:
		a.Session.Write(ctx, result.SessionToken)
		fmt.Println("Signed in.")
		return nil

	case auth.StepConfirmationNeeded:
		fmt.Println("Account not confirmed. Run: nightjar signup confirm", identifier, "<code>")
		return nil

	case auth.StepPasswordResetRequired:
		fmt.Println("Password reset required. Run: nightjar password reset", identifier)
		return nil

	case auth.StepMFARequired:
		fmt.Printf("Second factor required (%s).\n", result.MFAKind)
		code, err := readLine("Code: ")
		if err != nil {
			return err
		}
		confirmed, err := a.Auth.ConfirmSignIn(ctx, identifier, code)
		if err != nil {
			return fmt.Errorf("MFA confirmation failed: %w", err)
		}
		if confirmed.Step != auth.StepDone {
			return fmt.Errorf("unexpected step after MFA confirmation: %s", confirmed.Step)
		}
		a.Session.Write(ctx, confirmed.SessionToken)
		fmt.Println("Signed in.")
		return nil

	default:
		return fmt.Errorf("unknown sign-in step: %s", result.Step)
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "sign out and clear the stored session",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			if a.Auth != nil {
				if err := a.Auth.SignOut(ctx); err != nil {
					// Local state is cleared regardless; the backend
					// session expires on its own.
					fmt.Fprintln(os.Stderr, "warning: backend sign-out failed:", err)
				}
			}
			a.Session.Clear(ctx)
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "sign-up flows",
		Commands: []*cli.Command{
			{
				Name:      "confirm",
				Usage:     "confirm a new account with the emailed code",
				ArgsUsage: "<identifier> <code>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					identifier, code := cmd.Args().Get(0), cmd.Args().Get(1)
					if identifier == "" || code == "" {
						return fmt.Errorf("identifier and code arguments required")
					}

					a, err := setup(cmd)
					if err != nil {
						return err
					}
					if a.Auth == nil {
						return errNoAuth
					}

					if err := a.Auth.ConfirmSignUp(ctx, identifier, code); err != nil {
						return fmt.Errorf("confirmation failed: %w", err)
					}
					fmt.Println("Account confirmed. You can now log in.")
					return nil
				},
			},
		},
	}
}

func passwordCommand() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "password reset flows",
		Commands: []*cli.Command{
			{
				Name:      "reset",
				Usage:     "request a password reset code",
				ArgsUsage: "<identifier>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					identifier := cmd.Args().First()
					if identifier == "" {
						return fmt.Errorf("identifier argument required")
					}

					a, err := setup(cmd)
					if err != nil {
						return err
					}
					if a.Auth == nil {
						return errNoAuth
					}

					challenge, err := a.Auth.RequestPasswordReset(ctx, identifier)
					if err != nil {
						return fmt.Errorf("reset request failed: %w", err)
					}
					if challenge.Destination != "" {
						fmt.Println("Reset code sent to", challenge.Destination)
					} else {
						fmt.Println("Reset requested:", challenge.Status)
					}
					return nil
				},
			},
			{
				Name:      "confirm",
				Usage:     "complete a password reset",
				ArgsUsage: "<identifier> <code>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					identifier, code := cmd.Args().Get(0), cmd.Args().Get(1)
					if identifier == "" || code == "" {
						return fmt.Errorf("identifier and code arguments required")
					}

					a, err := setup(cmd)
					if err != nil {
						return err
					}
					if a.Auth == nil {
						return errNoAuth
					}

					newSecret, err := readSecret("New password: ")
					if err != nil {
						return err
					}

					if err := a.Auth.ConfirmPasswordReset(ctx, identifier, code, newSecret); err != nil {
						return fmt.Errorf("reset confirmation failed: %w", err)
					}
					fmt.Println("Password updated.")
					return nil
				},
			},
		},
	}
}

// readSecret prompts on stderr and reads a secret without echo.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(secret), nil
}

// readLine prompts on stderr and reads one line from stdin.
func readLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
