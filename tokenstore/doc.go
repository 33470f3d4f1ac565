// Package tokenstore provides storage backends for serialized token records.
//
// Three backends with different persistence and security tradeoffs:
//   - Memory: volatile in-process map, for tests and short-lived integrations
//   - File: local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows
//     Credential Manager, Linux Secret Service)
//
// Loss of a stored record only forces re-authentication, never corruption,
// so backend failures are degraded rather than fatal by the layers above.
package tokenstore
