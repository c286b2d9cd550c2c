// Package auth verifies that the caller is who they claim to be before a
// decision that requires a password is acted on.
//
// Verification uses the host user database (/etc/shadow) and the common
// crypt formats; hashes crypt cannot check are handed to su(1) under a
// PTY. A successful verification can be remembered for a while in a
// signed timestamp ticket.
package auth
