package devapi

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Seed creates a demo center with an owner account unless the email is
// already taken. It is safe to run on every start.
func Seed(ctx context.Context, store Store, email, password string) error {
	_, err := store.FindStaffByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	center, err := store.Insert(ctx, tables["lc"], Row{
		"lc_name":    "Demo Center",
		"lc_address": "Kyiv",
		"lc_phone":   "+380000000000",
		"currency":   "UAH",
	})
	if err != nil {
		return fmt.Errorf("devapi: seed center: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("devapi: seed password: %w", err)
	}
	_, err = store.Insert(ctx, tables["user_staff"], Row{
		"lc_id":     center["id"],
		"user_name": "Demo Owner",
		"user_mail": normalizeEmail(email),
		"user_role": "owner",
		"user_pass": string(hash),
	})
	if err != nil {
		return fmt.Errorf("devapi: seed owner: %w", err)
	}
	return nil
}
