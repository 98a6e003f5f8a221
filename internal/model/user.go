package model

type UserProfile struct {
	Nom            string `json:"nom"`
	Prenom         string `json:"prenom"`
	NumeroWhatsapp string `json:"numero_whatsapp"`
	Email          string `json:"email,omitempty"`
	IsAdmin        bool   `json:"is_admin"`
}

func (u UserProfile) DisplayName() string {
	switch {
	case u.Prenom != "" && u.Nom != "":
		return u.Prenom + " " + u.Nom
	case u.Prenom != "":
		return u.Prenom
	case u.Nom != "":
		return u.Nom
	default:
		return u.NumeroWhatsapp
	}
}

func (u UserProfile) Greeting() string {
	name := u.Prenom
	if name == "" {
		name = u.DisplayName()
	}
	return "Bonjour, " + name
}

type LoginRequest struct {
	NumeroWhatsapp string `json:"numero_whatsapp" validate:"required"`
	Password       string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Nom             string `json:"nom" validate:"required,max=100"`
	Prenom          string `json:"prenom" validate:"required,max=100"`
	NumeroWhatsapp  string `json:"numero_whatsapp" validate:"required,max=20"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (r RegisterRequest) PasswordsMatch() bool {
	return r.Password == r.ConfirmPassword
}

// Result is the envelope of every mutating backend call.
type Result struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *UserProfile `json:"user,omitempty"`
}
