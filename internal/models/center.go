package models

// Значения по умолчанию для полей, которых нет в ответе сервера.
const (
	DefaultCenterName = "Unnamed Center"
	DefaultCurrency   = "UAH"
	DefaultStaffName  = "Unknown"
	DefaultStaffRole  = "staff"
)

// Center — учебный центр (коллекция lc).
type Center struct {
	ID         string
	Name       string
	Address    string
	Phone      string
	Currency   string
	StaffCount int
}

// StaffMember — сотрудник центра (коллекция user_staff).
type StaffMember struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// CenterFromRecord нормализует запись lc: сначала «чистое» имя поля, потом
// legacy-имя с префиксом lc_, потом значение по умолчанию.
func CenterFromRecord(r Record) Center {
	return Center{
		ID:         r.String("id"),
		Name:       r.StringOr(DefaultCenterName, "name", "lc_name"),
		Address:    r.String("address", "lc_address"),
		Phone:      r.String("phone", "lc_phone"),
		Currency:   r.StringOr(DefaultCurrency, "currency"),
		StaffCount: r.Int("staff_count"),
	}
}

// StaffFromRecord нормализует запись user_staff (legacy-префикс user_).
func StaffFromRecord(r Record) StaffMember {
	return StaffMember{
		ID:    r.String("id"),
		Name:  r.StringOr(DefaultStaffName, "name", "user_name"),
		Email: r.String("email", "user_mail"),
		Role:  r.StringOr(DefaultStaffRole, "role", "user_role"),
	}
}

func CentersFromRecords(records []Record) []Center {
	out := make([]Center, 0, len(records))
	for _, r := range records {
		out = append(out, CenterFromRecord(r))
	}
	return out
}

func StaffFromRecords(records []Record) []StaffMember {
	out := make([]StaffMember, 0, len(records))
	for _, r := range records {
		out = append(out, StaffFromRecord(r))
	}
	return out
}
