package auth

// Role tags every principal and is carried as the "role" claim.
type Role string

const (
	RoleUser         Role = "USER"
	RoleGuest        Role = "GUEST"
	RoleOrganization Role = "ORGANIZATION"
	RoleSystem       Role = "SYSTEM"
)

const (
	// GuestSubject is the literal subject (and password) of anonymous logins.
	GuestSubject = "GUEST"
	// SystemSubject is the literal both token headers carry on internal
	// service-to-service calls.
	SystemSubject = "SYSTEM"
)

// Principal is the identity resolved for the current request.
type Principal struct {
	Subject   string `json:"subject"`
	Role      Role   `json:"role"`
	Authority string `json:"authority"`
}

// IsGuest reports whether p is the anonymous principal.
func (p Principal) IsGuest() bool {
	return p.Role == RoleGuest
}

// IsSystem reports whether p is the internal service principal.
func (p Principal) IsSystem() bool {
	return p.Role == RoleSystem
}

// Profile is the directory view of a resolved principal. GUEST and SYSTEM
// profiles are synthesized and never read from a directory.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Identity pairs a principal with its profile.
type Identity struct {
	Principal Principal `json:"principal"`
	Profile   Profile   `json:"profile"`
}

// TokenPair is returned from every login and registration.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func newPrincipal(subject string, role Role) Principal {
	return Principal{Subject: subject, Role: role, Authority: string(role)}
}

func guestIdentity() Identity {
	return Identity{
		Principal: newPrincipal(GuestSubject, RoleGuest),
		Profile:   Profile{ID: GuestSubject, Email: GuestSubject, Name: "Guest", Role: RoleGuest},
	}
}

func systemIdentity() Identity {
	return Identity{
		Principal: newPrincipal(SystemSubject, RoleSystem),
		Profile:   Profile{ID: SystemSubject, Email: SystemSubject, Name: "System", Role: RoleSystem},
	}
}
