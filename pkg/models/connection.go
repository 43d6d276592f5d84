package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-bi/pkg/jsonutil"
)

// Provider identifies the database engine behind a connection.
type Provider int

const (
	ProviderPostgres Provider = iota
	ProviderSQLServer
)

// String returns the wire name of the provider.
func (p Provider) String() string {
	switch p {
	case ProviderPostgres:
		return "postgres"
	case ProviderSQLServer:
		return "sqlServer"
	default:
		return fmt.Sprintf("Provider(%d)", int(p))
	}
}

// DisplayName is the human readable engine name used in logs.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderPostgres:
		return "PostgreSQL"
	case ProviderSQLServer:
		return "Microsoft SQL Server"
	default:
		return p.String()
	}
}

// IsValid reports whether p is a known provider.
func (p Provider) IsValid() bool {
	return p == ProviderPostgres || p == ProviderSQLServer
}

// ParseProvider accepts the wire name (any case) or the ordinal number.
func ParseProvider(value string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "postgres", "0":
		return ProviderPostgres, nil
	case "sqlserver", "1":
		return ProviderSQLServer, nil
	default:
		return 0, fmt.Errorf("unknown provider %q", value)
	}
}

func (p Provider) MarshalJSON() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("cannot marshal unknown provider %d", int(p))
	}
	return json.Marshal(p.String())
}

func (p *Provider) UnmarshalJSON(data []byte) error {
	parsed, err := ParseProvider(jsonutil.FlexibleStringValue(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ConnectionDefinition is a registered target database.
// ConnectionString carries credentials and must never be returned to clients;
// use ToDto for responses.
type ConnectionDefinition struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Provider         Provider  `json:"provider"`
	ConnectionString string    `json:"connectionString"`
	CreatedAt        time.Time `json:"createdAt,omitzero"`
	UpdatedAt        time.Time `json:"updatedAt,omitzero"`
}

// ConnectionDto is the client-visible view of a connection.
type ConnectionDto struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Provider Provider `json:"provider"`
}

// ToDto strips the connection string.
func (c *ConnectionDefinition) ToDto() ConnectionDto {
	return ConnectionDto{ID: c.ID, Name: c.Name, Provider: c.Provider}
}

// NewConnectionID returns a random id as 32 lowercase hex characters.
func NewConnectionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
