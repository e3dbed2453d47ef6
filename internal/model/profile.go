package model

type Role string

const (
	RoleBrand   Role = "brand"
	RoleCreator Role = "creator"
)

func (r Role) Valid() bool {
	return r == RoleBrand || r == RoleCreator
}

type Profile struct {
	ID          string `db:"id" json:"id"`
	Role        Role   `db:"role" json:"role"`
	Email       string `db:"email" json:"email"`
	DisplayName string `db:"display_name" json:"display_name"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsBrand() bool   { return a.Role == RoleBrand }
func (a Actor) IsCreator() bool { return a.Role == RoleCreator }
