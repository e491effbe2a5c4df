package models

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Identity is the authenticated principal as known to the session
type Identity struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"user_type"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// FullName joins first and last name, falls back to username
func (i Identity) FullName() string {
	switch {
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	case i.LastName != "":
		return i.LastName
	default:
		return i.Username
	}
}

// Credentials supplied by the user to log in. Never persisted
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterData holds sign-up fields accepted by the clinic API
type RegisterData struct {
	Username    string `json:"username" validate:"required,max=150"`
	Email       string `json:"email" validate:"omitempty,email"`
	Password    string `json:"password" validate:"required"`
	Password2   string `json:"password2" validate:"required,eqfield=Password"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	UserType    string `json:"user_type" validate:"required,oneof=patient doctor admin"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,max=15"`
}

// Credentials used to log in right after successful registration
func (d RegisterData) Credentials() Credentials {
	return Credentials{Username: d.Username, Password: d.Password}
}
