package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Server is the runtime configuration of the backend web application. It is
// read from the environment once at process start and passed to the handlers.
type Server struct {
	Port        int
	LogoutURL   string
	UserInfoURL string
	LogLevel    slog.Level
}

// Addr is the listen address for the HTTP server.
func (s Server) Addr() string { return fmt.Sprintf(":%d", s.Port) }

// LoadServer builds the server configuration from getenv (usually os.Getenv).
// PORT defaults to 8080; LOGOUT_URL and USER_INFO_URL are optional.
func LoadServer(getenv func(string) string) (Server, error) {
	cfg := Server{Port: 8080, LogLevel: slog.LevelInfo}

	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return Server{}, &FieldError{Key: "PORT", Err: ErrMalformed, Detail: fmt.Sprintf("want a TCP port, got %q", v)}
		}
		cfg.Port = p
	}
	cfg.LogoutURL = strings.TrimSpace(getenv("LOGOUT_URL"))
	cfg.UserInfoURL = strings.TrimSpace(getenv("USER_INFO_URL"))

	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Server{}, &FieldError{Key: "LOG_LEVEL", Err: ErrMalformed, Detail: err.Error()}
		}
	}
	return cfg, nil
}
