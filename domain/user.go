package domain

// User is the public representation of an account, safe to serialize in API
// responses and socket payloads. The password hash never leaves the
// repository layer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Pic   string `json:"pic,omitempty"`
}

// AuthenticatedUser is the login/register response: the user document plus a
// freshly signed session token.
type AuthenticatedUser struct {
	User
	Token string `json:"token"`
}
