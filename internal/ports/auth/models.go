package auth

// Role es el rol del usuario autenticado.
type Role string

const (
	RoleVisitor Role = "visitor"
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
)

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}

func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
