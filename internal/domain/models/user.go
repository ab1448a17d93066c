package models

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// SessionUser - данные пользователя, которые хранятся в сессии
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (u SessionUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Account - учетная запись из конфигурации (пароль хранится как bcrypt-хеш)
type Account struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Role         string `yaml:"role" env-default:"user"`
	PasswordHash string `yaml:"password_hash"`
}
