package models

// File permissions
const (
	PermissionOutputFile = 0644
	PermissionDirectory  = 0750
)
