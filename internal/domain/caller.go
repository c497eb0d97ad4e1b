package domain

// ActorKind discriminates the authenticated principal behind a request.
// "Individual vs organization member" is resolved once at the auth layer
// into this tagged form instead of being re-derived from nullable foreign
// keys at every call site.
type ActorKind string

const (
	ActorUser         ActorKind = "user"
	ActorOrganization ActorKind = "organization"
	ActorAdmin        ActorKind = "admin"
)

// Caller is the resolved identity threaded through context by the auth
// middleware. Exactly one of UserID/OrgID is meaningful, selected by Kind
// (admins carry a UserID).
type Caller struct {
	Kind   ActorKind
	UserID int32
	OrgID  int32
	// OrgMemberOf is set for users affiliated with an organization.
	OrgMemberOf *int32
}

func (c Caller) IsUser() bool         { return c.Kind == ActorUser }
func (c Caller) IsOrganization() bool { return c.Kind == ActorOrganization }
func (c Caller) IsAdmin() bool        { return c.Kind == ActorAdmin }
