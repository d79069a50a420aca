package trust

// TrustRoot records that the owner of an identity approved a relying
// party. Trust roots are matched by exact string comparison, never
// normalized, and duplicates are tolerated.
type TrustRoot struct {
	ID         string
	IdentityID string
	TrustRoot  string
}
