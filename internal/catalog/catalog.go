package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"awstatus/internal/feed"
)

var (
	ErrUnknownService = errors.New("unknown service")
	ErrUnknownRegion  = errors.New("unknown region")
)

// Entry is one friendly-name/code pair.
type Entry struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// mapping is one direction-agnostic lookup table: friendly names map to
// codes, and the set of codes is known so either form resolves. Names
// keep their original case for listing; lookups are case-insensitive.
type mapping struct {
	names  map[string]string // original name -> code
	byName map[string]string // lowercased name -> code
	codes  map[string]bool   // lowercased codes
}

func newMapping() *mapping {
	return &mapping{
		names:  make(map[string]string),
		byName: make(map[string]string),
		codes:  make(map[string]bool),
	}
}

func (m *mapping) add(name, code string) {
	if name == "" {
		return
	}
	m.names[name] = code
	m.byName[strings.ToLower(name)] = code
	if code != "" {
		m.codes[strings.ToLower(code)] = true
	}
}

func (m *mapping) has(value string) bool {
	v := strings.ToLower(value)
	if _, ok := m.byName[v]; ok {
		return true
	}
	return m.codes[v]
}

func (m *mapping) resolve(value string) (string, bool) {
	v := strings.ToLower(value)
	if code, ok := m.byName[v]; ok {
		return code, true
	}
	if m.codes[v] {
		return v, true
	}
	return "", false
}

func (m *mapping) list() []Entry {
	entries := make([]Entry, 0, len(m.names))
	for name, code := range m.names {
		entries = append(entries, Entry{Name: name, Code: code})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Catalog holds the name<->code lookup tables for services and regions,
// rebuilt wholesale from the service feed on each Refresh.
type Catalog struct {
	mu       sync.RWMutex
	fetcher  feed.Fetcher
	services *mapping
	regions  *mapping
}

// New creates an empty Catalog backed by the given fetcher.
func New(fetcher feed.Fetcher) *Catalog {
	return &Catalog{
		fetcher:  fetcher,
		services: newMapping(),
		regions:  newMapping(),
	}
}

// Refresh rebuilds both tables from the service feed. Previous entries
// are discarded only once the fetch has succeeded.
func (c *Catalog) Refresh(ctx context.Context) error {
	entries, err := c.fetcher.FetchServices(ctx)
	if err != nil {
		return err
	}

	services := newMapping()
	regions := newMapping()
	for _, e := range entries {
		services.add(e.ServiceName, strings.Split(e.Service, "-")[0])
		if e.RegionName != "" {
			regions.add(e.RegionName, e.RegionID)
		}
	}

	c.mu.Lock()
	c.services = services
	c.regions = regions
	c.mu.Unlock()
	return nil
}

// HasService reports whether the value names a known service, by
// friendly name or code.
func (c *Catalog) HasService(value string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services.has(value)
}

// ServiceCode resolves a friendly name or code to the canonical code.
func (c *Catalog) ServiceCode(value string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.services.resolve(value)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, value)
	}
	return code, nil
}

// HasRegion reports whether the value names a known region.
func (c *Catalog) HasRegion(value string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.regions.has(value)
}

// RegionCode resolves a friendly name or code to the canonical code.
func (c *Catalog) RegionCode(value string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.regions.resolve(value)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, value)
	}
	return code, nil
}

// Services lists the known services sorted by name.
func (c *Catalog) Services() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services.list()
}

// Regions lists the known regions sorted by name.
func (c *Catalog) Regions() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.regions.list()
}
