package userdb

// Package userdb reads the host user database:
//   /etc/passwd
//   /etc/group
//   /etc/shadow
//
// It is read-only. A DB is a snapshot taken once per invocation and serves
// as the identity.Provider for the policy parser and the launcher.
