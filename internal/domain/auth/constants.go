package auth

const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

var Roles = []string{RoleAdmin, RoleEmployee}

const (
	MinPasswordLength = 6
	mfaIssuer         = "Feedback360"
)
