package identity

// Identity is one provider-local identity string owned by an account. An
// account may own several; Default marks the one sentinel resolution
// should prefer.
type Identity struct {
	ID         string
	AccountID  string
	Identifier string
	Default    bool
}
