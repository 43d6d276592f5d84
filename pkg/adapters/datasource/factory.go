package datasource

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
)

// ConnectionFactory opens sessions to registered databases.
type ConnectionFactory interface {
	// Open returns a fresh session. Failures to reach or authenticate against
	// the database are returned as *apperrors.ConnectionError.
	Open(ctx context.Context, provider models.Provider, connectionString string) (Connection, error)

	// ListAdapters returns info for all compiled-in adapters.
	ListAdapters() []AdapterInfo
}

type registryFactory struct{}

// NewConnectionFactory returns a factory backed by the adapter registry.
func NewConnectionFactory() ConnectionFactory {
	return &registryFactory{}
}

func (f *registryFactory) Open(ctx context.Context, provider models.Provider, connectionString string) (Connection, error) {
	open := GetOpener(provider)
	if open == nil {
		return nil, apperrors.InvalidInput("Unsupported provider: %s.", provider)
	}

	conn, err := open(ctx, connectionString)
	if err != nil {
		return nil, apperrors.NewConnectionError(fmt.Errorf("open %s: %w", provider.DisplayName(), err))
	}
	return conn, nil
}

func (f *registryFactory) ListAdapters() []AdapterInfo {
	return RegisteredAdapters()
}

// Ensure registryFactory implements ConnectionFactory at compile time.
var _ ConnectionFactory = (*registryFactory)(nil)
