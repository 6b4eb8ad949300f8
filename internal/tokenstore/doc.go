// Package tokenstore provides persistent storage backends for bearer tokens.
//
// Three backends cover the deployment spectrum:
//   - File: local filesystem storage with atomic writes and 0600 permissions
//   - Env: read-only environment variable access (no token persistence)
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential
//     Manager, Linux Secret Service)
//
// Backends report storage failures as errors. Callers that need best-effort
// semantics (a missing token means "signed out", not a fault) wrap a backend
// in a session.Store.
package tokenstore
