package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record — слабо типизированная запись из ответа API. Бэкенд в процессе
// миграции отдаёт поля то «чистыми» именами, то legacy-именами, поэтому все
// геттеры принимают список имён и берут первое непустое значение.
type Record map[string]any

// String возвращает первое непустое значение среди keys. Числа форматируются
// без экспоненты (id бывают числовыми).
func (r Record) String(keys ...string) string {
	for _, k := range keys {
		if s := scalarString(r[k]); s != "" {
			return s
		}
	}
	return ""
}

func (r Record) StringOr(def string, keys ...string) string {
	if s := r.String(keys...); s != "" {
		return s
	}
	return def
}

// Int возвращает первое ненулевое целое среди keys.
func (r Record) Int(keys ...string) int {
	for _, k := range keys {
		switch v := r[k].(type) {
		case float64:
			if v != 0 {
				return int(v)
			}
		case json.Number:
			if n, err := v.Int64(); err == nil && n != 0 {
				return int(n)
			}
			if f, err := v.Float64(); err == nil && f != 0 {
				return int(f)
			}
		case int:
			if v != 0 {
				return v
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n != 0 {
				return n
			}
		}
	}
	return 0
}

// Nested возвращает вложенный объект или nil.
func (r Record) Nested(key string) Record {
	switch v := r[key].(type) {
	case map[string]any:
		return Record(v)
	case Record:
		return v
	}
	return nil
}

func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

var errNotListing = errors.New("models: listing is neither an object with items nor an array")

// DecodeItems разбирает листинг вида {"items":[...]}; старый бэкенд отдавал
// голый массив, его тоже принимаем. Отсутствующий items — пустой список.
func DecodeItems(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errNotListing
	}

	var items []Record
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("models: decode listing: %w", err)
		}
	case '{':
		var envelope struct {
			Items []Record `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("models: decode listing: %w", err)
		}
		items = envelope.Items
	default:
		return nil, errNotListing
	}

	if items == nil {
		items = []Record{}
	}
	return items, nil
}

// SessionFromLogin строит Session из тела успешного логина:
// user.name|user.user_name, user.email|user.user_mail, user.role|user.user_role, token.
func SessionFromLogin(body Record) Session {
	user := body.Nested("user")
	if user == nil {
		user = Record{}
	}
	return Session{
		Name:  user.String("name", "user_name"),
		Email: user.String("email", "user_mail"),
		Role:  user.String("role", "user_role"),
		Token: body.String("token"),
	}
}
