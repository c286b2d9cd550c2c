package hostfs

// Package hostfs provides safe access helpers for the host files nyado
// trusts: the user database, the policy file, the settings file and the
// timestamp directory.
//
// Fixed contract:
//   Root = /
//
// Well-known locations (see paths.go):
//   /etc/passwd, /etc/group, /etc/shadow
//   /etc/nyado/nyado.conf
//   /etc/nyado/settings.yaml
//
// nyado runs setuid, so none of these locations can be overridden from the
// caller's environment.
