package model

// Credentials are the portal login, loaded once at startup and read-only afterwards.
type Credentials struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	UtilityCode string `json:"utility_code"`
}

// String hides the password so credentials can be logged safely.
func (c Credentials) String() string {
	return "Credentials{Username: " + c.Username + ", UtilityCode: " + c.UtilityCode + "}"
}
