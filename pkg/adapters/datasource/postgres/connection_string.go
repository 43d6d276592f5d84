package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/ekaya-inc/ekaya-bi/pkg/config"
)

// adoKeys maps keyword=value;... connection string keys (the format .NET
// clients write) to libpq parameter names.
var adoKeys = map[string]string{
	"host":             "host",
	"server":           "host",
	"port":             "port",
	"database":         "dbname",
	"initial catalog":  "dbname",
	"username":         "user",
	"user name":        "user",
	"user id":          "user",
	"userid":           "user",
	"user":             "user",
	"password":         "password",
	"pwd":              "password",
	"ssl mode":         "sslmode",
	"sslmode":          "sslmode",
	"timeout":          "connect_timeout",
	"application name": "application_name",
}

var sslModes = map[string]string{
	"disable":     "disable",
	"allow":       "allow",
	"prefer":      "prefer",
	"require":     "require",
	"verifyca":    "verify-ca",
	"verify-ca":   "verify-ca",
	"verifyfull":  "verify-full",
	"verify-full": "verify-full",
}

// NormalizeConnectionString returns a connection string pgx can parse.
// URLs and libpq keyword strings pass through (URL hosts are resolved for
// Docker); semicolon separated keyword=value strings are converted to a URL
// with every user-supplied part escaped.
func NormalizeConnectionString(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("connection string is empty")
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("invalid connection URL: %w", err)
		}
		u.Host = resolveHost(u.Hostname(), u.Port())
		return u.String(), nil
	}

	if !strings.Contains(raw, ";") {
		return raw, nil
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, known := adoKeys[strings.ToLower(strings.TrimSpace(key))]
		if !known {
			continue
		}
		params[name] = strings.TrimSpace(value)
	}

	if params["host"] == "" {
		return "", fmt.Errorf("connection string has no host")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   resolveHost(params["host"], params["port"]),
		Path:   "/" + params["dbname"],
	}
	if user := params["user"]; user != "" {
		if pw, ok := params["password"]; ok {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}

	query := url.Values{}
	if mode := params["sslmode"]; mode != "" {
		normalized, ok := sslModes[strings.ToLower(mode)]
		if !ok {
			return "", fmt.Errorf("unsupported ssl mode %q", mode)
		}
		query.Set("sslmode", normalized)
	}
	for _, key := range []string{"connect_timeout", "application_name"} {
		if v := params[key]; v != "" {
			query.Set(key, v)
		}
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

func resolveHost(host, port string) string {
	host = config.ResolveHostForDocker(host)
	if port == "" {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}
