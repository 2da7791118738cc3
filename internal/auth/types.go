package auth

// PermissionAdmin gates the administrative control surface: allowlist
// edits, wallet rotation, engine pause, emergency release, dispute
// adjudication.
const PermissionAdmin = "escrow:admin"

// Principal is an authenticated caller identity, resolved once at the API
// boundary from validated token claims.
type Principal struct {
	ID          string
	Permissions []string
}

// Has reports whether the principal carries a permission.
func (p Principal) Has(permission string) bool {
	for _, granted := range p.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}
