package domain

// Permission is an entry of the permissions table and of the legacy
// document. The authorization service owns the rows; the import only
// counts them.
type Permission struct {
	UUID               string `json:"uuid"`
	AcquiredPermission string `json:"acquiredPermission"`
}
