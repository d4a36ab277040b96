package kquery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vingarcia/kquery/sqldialect"
)

// ErrUnknownAdapter is returned by OpenAdapter when no adapter
// was registered with the requested name.
var ErrUnknownAdapter = errors.New("kquery: unknown adapter")

// OpenFn opens a new connection pool for an adapter
type OpenFn func(ctx context.Context, connectionString string, config Config) (DBAdapter, error)

// AdapterInfo describes a registered adapter
type AdapterInfo struct {
	Name    string
	Dialect sqldialect.Name
	Open    OpenFn
}

var registry = struct {
	mu       sync.RWMutex
	adapters map[string]AdapterInfo
}{
	adapters: map[string]AdapterInfo{},
}

// RegisterAdapter makes an adapter available by name for OpenAdapter().
//
// It is usually called from the init() function of each adapter package,
// so importing the adapter package is enough to make it available, e.g.:
//
//	import _ "github.com/vingarcia/kquery/adapters/kpgx5"
func RegisterAdapter(name string, dialect sqldialect.Name, open OpenFn) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.adapters[name] = AdapterInfo{
		Name:    name,
		Dialect: dialect,
		Open:    open,
	}
}

// LookupAdapter returns the adapter registered with the given name
func LookupAdapter(name string) (AdapterInfo, error) {
	registry.mu.RLock()
	info, found := registry.adapters[name]
	registry.mu.RUnlock()

	if !found {
		return AdapterInfo{}, fmt.Errorf("%w `%s` (available adapters: %v)", ErrUnknownAdapter, name, RegisteredAdapters())
	}

	return info, nil
}

// RegisteredAdapters lists the names of all registered adapters
func RegisteredAdapters() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.adapters))
	for name := range registry.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenAdapter opens a connection using the adapter registered as `name`
func OpenAdapter(ctx context.Context, name string, connectionString string, config Config) (DBAdapter, error) {
	info, err := LookupAdapter(name)
	if err != nil {
		return nil, err
	}

	config.SetDefaultValues()
	db, err := info.Open(ctx, connectionString, config)
	if err != nil {
		return nil, fmt.Errorf("kquery: unable to open %s connection: %w", name, err)
	}

	return db, nil
}
