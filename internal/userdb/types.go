package userdb

type PasswdEntry struct {
	Name   string
	Passwd string
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string
}

type ShadowEntry struct {
	Name       string
	Hash       string
	LastChange string
	Min        string
	Max        string
	Warn       string
	Inactive   string
	Expire     string
}

// Locked reports whether the account cannot authenticate with a password.
func (e ShadowEntry) Locked() bool {
	return e.Hash == "" || e.Hash[0] == '!' || e.Hash[0] == '*'
}

type GroupEntry struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}
