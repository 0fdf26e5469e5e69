package models

// Account represents an AWS account configured for scanning.
// Loaded once at startup and never mutated.
type Account struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"name"`
	RoleARN     string `yaml:"role_arn"`
}

// Label returns the human-readable account label for report rows.
func (a Account) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.ID
}

// ScanContext identifies one (account, region) scanning unit.
type ScanContext struct {
	Account Account
	Region  string
}
