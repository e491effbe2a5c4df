package models

// Keys under which the token pair is kept in durable storage
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// Token pair issued by the auth service
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// IsZero reports whether both tokens are empty
func (p TokenPair) IsZero() bool {
	return p.Access == "" && p.Refresh == ""
}
