package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// databaseURL is the decomposed form of a postgres:// connection URL.
// The audit store takes either a URL or discrete host/user fields; this
// bridges the URL form onto the keyword DSN lib/pq expects.
type databaseURL struct {
	host     string
	port     int
	user     string
	password string
	database string
	sslMode  string
	options  map[string]string
}

// parseDatabaseURL decomposes a postgres:// or postgresql:// URL.
// A missing port defaults to 5432 and a missing sslmode to disable.
func parseDatabaseURL(raw string) (*databaseURL, error) {
	if raw == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(strings.Replace(raw, "postgresql://", "postgres://", 1))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if u.Scheme != "postgres" {
		return nil, fmt.Errorf("invalid database URL scheme: %s (expected postgres or postgresql)", u.Scheme)
	}

	d := &databaseURL{
		host:     u.Hostname(),
		port:     5432,
		database: strings.TrimPrefix(u.Path, "/"),
		sslMode:  "disable",
		options:  make(map[string]string),
	}

	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port in database URL: %w", err)
		}
		d.port = port
	}

	if u.User != nil {
		d.user = u.User.Username()
		d.password, _ = u.User.Password()
	}

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "sslmode" {
			d.sslMode = values[0]
			continue
		}
		d.options[key] = values[0]
	}

	return d, nil
}

// dsn renders the components as a libpq keyword/value string. Extra URL
// options are appended in sorted order so the output is stable.
func (d *databaseURL) dsn() string {
	s := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.host, d.port, d.user, d.password, d.database, d.sslMode,
	)

	keys := make([]string, 0, len(d.options))
	for key := range d.options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		s += fmt.Sprintf(" %s=%s", key, d.options[key])
	}

	return s
}
