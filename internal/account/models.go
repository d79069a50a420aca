package account

// Account owns identities and carries the profile data the response
// extensions publish.
type Account struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
}
