package store

// Role is a catalog entry mapping a standardized role to its skills.
type Role struct {
	Name        string
	Description string
	Skills      []string
}

// RoleMatch is the best-matching role for a skill set: how many of the
// submitted skills the role requires, and which ones matched.
type RoleMatch struct {
	RoleName      string
	Description   string
	MatchCount    int
	MatchedSkills []string
}
