package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// DSNFromEnv берёт конфиг из окружения.
// Приоритет: DATABASE_URL > POSTGRES_DSN > сборка из отдельных переменных.
func DSNFromEnv() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		return dsn
	}

	host := getenv("POSTGRES_HOST", "127.0.0.1")
	port := getenv("POSTGRES_PORT", "5432")
	user := getenv("POSTGRES_USER", "postgres")
	pass := os.Getenv("POSTGRES_PASSWORD")
	name := getenv("POSTGRES_DB", "eduvision")
	sslm := getenv("POSTGRES_SSLMODE", "disable") // локально disable; в проде обычно require/verify-full

	// lib/pq key=value формат
	parts := []string{
		"host=" + host,
		"port=" + port,
		"user=" + user,
		"dbname=" + name,
		"sslmode=" + sslm,
	}
	if pass != "" {
		parts = append(parts, "password="+pass)
	}
	return strings.Join(parts, " ")
}

// Open подключается, настраивает пул и пингует с таймаутом,
// чтобы не вешать процесс на недоступной базе.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	log.Printf("db: connected (%s)", SafeTarget(dsn))
	return conn, nil
}

// SafeTarget описывает «куда» подключились, без пароля.
func SafeTarget(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return fmt.Sprintf("host=%s user=%s db=%s", u.Host, u.User.Username(), strings.TrimPrefix(u.Path, "/"))
	}
	var kept []string
	for _, part := range strings.Fields(dsn) {
		switch {
		case strings.HasPrefix(part, "host="), strings.HasPrefix(part, "user="), strings.HasPrefix(part, "dbname="):
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
