package datasource

import (
	"sort"
	"sync"

	"github.com/ekaya-inc/ekaya-bi/pkg/models"
)

// AdapterInfo describes a registered adapter.
type AdapterInfo struct {
	Provider    models.Provider `json:"provider"`
	DisplayName string          `json:"displayName"`
	Description string          `json:"description"`
}

// AdapterRegistration pairs adapter info with its open function.
type AdapterRegistration struct {
	Info AdapterInfo
	Open OpenFunc
}

var (
	registryMu sync.RWMutex
	registry   = make(map[models.Provider]AdapterRegistration)
)

// Register is called by each adapter's init() function.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Provider] = reg
}

// RegisteredAdapters returns info for all registered adapters ordered by provider.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Provider < result[j].Provider })
	return result
}

// GetOpener returns the open function for provider, or nil if no adapter
// for it was compiled in.
func GetOpener(provider models.Provider) OpenFunc {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[provider]; ok {
		return reg.Open
	}
	return nil
}

// IsRegistered checks if an adapter for provider is available.
func IsRegistered(provider models.Provider) bool {
	return GetOpener(provider) != nil
}
