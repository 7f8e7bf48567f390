package mint

// AccessControl records the single privileged principal of the collection.
type AccessControl struct {
	owner [20]byte
}

// NewAccessControl binds the access policy to owner.
func NewAccessControl(owner [20]byte) AccessControl {
	return AccessControl{owner: owner}
}

// Owner returns the recorded owner.
func (a AccessControl) Owner() [20]byte { return a.owner }

// IsOwner reports whether caller is the recorded owner. The zero address is
// never an owner.
func (a AccessControl) IsOwner(caller [20]byte) bool {
	return !isZeroAddress(caller) && caller == a.owner
}

// RequireOwner fails with ErrUnauthorized unless caller is the owner.
func (a AccessControl) RequireOwner(caller [20]byte) error {
	if !a.IsOwner(caller) {
		return ErrUnauthorized
	}
	return nil
}
