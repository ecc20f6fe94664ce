// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package connection

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/confighub/sourcesense/pkg/workflows"
)

// DefaultPort is used when a URL names no port.
const DefaultPort = 5432

// DefaultAuthType is the only auth type the server accepts today.
const DefaultAuthType = "basic"

// Params are the connection fields of step 1.
type Params struct {
	AuthType string
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string
}

// Credentials converts p to the request body shared by every endpoint.
func (p Params) Credentials() workflows.Credentials {
	authType := p.AuthType
	if authType == "" {
		authType = DefaultAuthType
	}
	c := workflows.Credentials{
		AuthType: authType,
		Host:     p.Host,
		Port:     p.Port,
		Username: p.Username,
		Password: p.Password,
		Database: p.Database,
	}
	if p.SSLMode != "" {
		c.Extra = map[string]string{"sslmode": p.SSLMode}
	}
	return c
}

// Redacted is p for logging.
func (p Params) Redacted() string {
	return fmt.Sprintf("%s@%s:%d/%s", p.Username, p.Host, p.Port, p.Database)
}

// ParseURL reads a postgres connection string. Strings without a scheme
// are retried with postgresql:// in front. Fields the URL leaves out stay
// empty: libpq defaults (PGUSER, ~/.pgpass, the OS user) are not applied.
func ParseURL(raw string) (Params, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Params{}, fmt.Errorf("connection URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "postgresql://" + raw
	}

	// pgconn only validates; it merges environment defaults into what it returns.
	if _, err := pgconn.ParseConfig(raw); err != nil {
		return Params{}, fmt.Errorf("invalid connection URL: %w", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Params{}, fmt.Errorf("invalid connection URL: %w", err)
	}

	p := Params{
		AuthType: DefaultAuthType,
		Host:     u.Hostname(),
		Port:     DefaultPort,
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  u.Query().Get("sslmode"),
	}
	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return Params{}, fmt.Errorf("invalid connection URL: bad port %q", port)
		}
		p.Port = n
	}
	if u.User != nil {
		p.Username = u.User.Username()
		p.Password, _ = u.User.Password()
	}
	return p, nil
}
