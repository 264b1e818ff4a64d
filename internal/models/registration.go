package models

import "strings"

// StatusPending — статус, с которым уходит каждая заявка на регистрацию.
const StatusPending = "pending"

// RegistrationRequest — заявка на подключение центра. Отправляется один раз
// и на клиенте не хранится.
type RegistrationRequest struct {
	CenterID  string `json:"center_id"`
	AdminName string `json:"admin_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
}

// NewRegistrationRequest собирает заявку: телефон = префикс + только цифры номера.
func NewRegistrationRequest(centerID, adminName, email, phonePrefix, phoneNumber string) RegistrationRequest {
	return RegistrationRequest{
		CenterID:  centerID,
		AdminName: adminName,
		Email:     email,
		Phone:     NormalizePhone(phonePrefix, phoneNumber),
		Status:    StatusPending,
	}
}

func NormalizePhone(prefix, number string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
