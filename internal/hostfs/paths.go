package hostfs

// Well-known host file locations.
const (
	EtcPasswdRel    = "etc/passwd"
	EtcShadowRel    = "etc/shadow"
	EtcGroupRel     = "etc/group"
	PolicyRel       = "etc/nyado/nyado.conf"
	SettingsRel     = "etc/nyado/settings.yaml"
	LogDirRel       = "var/log/nyado"
	TimestampDirRel = "run/nyado/ts"
)
