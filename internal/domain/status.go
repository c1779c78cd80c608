package domain

// Participation statuses.
const (
	StatusRegistered = "registered"
	StatusWaitlisted = "waitlisted"
	StatusAttended   = "attended"
)

// SystemExpiry marks a ticket consumed by the expiry sweep rather than a scan.
const SystemExpiry = "system-expiry"
