package models

// Роли с доступом к админ-панели.
const (
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// Session — аутентифицированный сотрудник. Создаётся только успешным логином,
// живёт в памяти процесса и уничтожается только логаутом.
type Session struct {
	Name  string
	Email string
	Role  string
	Token string // может быть пустым
}

// IsPrivileged сравнивает роль с литералами "admin"/"owner" без нормализации.
func (s Session) IsPrivileged() bool {
	return s.Role == RoleAdmin || s.Role == RoleOwner
}

// Initial первая буква имени для аватара; "U" если имени нет.
func (s Session) Initial() string {
	for _, r := range s.Name {
		return string(r)
	}
	return "U"
}

// Credentials — данные формы входа.
type Credentials struct {
	Center   string `json:"center"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
