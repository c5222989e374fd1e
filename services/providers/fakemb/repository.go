package fakemb

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"mountebank-client/models"
)

var (
	ErrPortInUse    = errors.New("port is already in use")
	ErrNoSuchPort   = errors.New("no imposter on port")
	ErrIndexInvalid = errors.New("stub index out of range")
)

type record struct {
	definition map[string]any
	requests   []any
}

// Repository keeps imposter definitions, as submitted, and their request
// logs in memory.
type Repository struct {
	mu        sync.RWMutex
	imposters map[int]*record
}

func NewRepository() *Repository {
	return &Repository{imposters: make(map[int]*record)}
}

// Create stores definition under port.
func (r *Repository) Create(port int, definition map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.imposters[port]; exists {
		return fmt.Errorf("%w: %d", ErrPortInUse, port)
	}
	def := maps.Clone(definition)
	if def == nil {
		def = map[string]any{}
	}
	if _, ok := def["stubs"]; !ok {
		def["stubs"] = []any{}
	}
	r.imposters[port] = &record{definition: def, requests: []any{}}
	return nil
}

// Read returns copies of the definition and request log stored under port.
func (r *Repository) Read(port int) (map[string]any, []any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, exists := r.imposters[port]
	if !exists {
		return nil, nil, fmt.Errorf("%w: %d", ErrNoSuchPort, port)
	}
	return maps.Clone(rec.definition), slices.Clone(rec.requests), nil
}

// List returns a summary of every imposter ordered by port.
func (r *Repository) List() []models.ImposterSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ImposterSummary, 0, len(r.imposters))
	for _, port := range slices.Sorted(maps.Keys(r.imposters)) {
		def := r.imposters[port].definition
		protocol, _ := def["protocol"].(string)
		name, _ := def["name"].(string)
		out = append(out, models.ImposterSummary{Protocol: models.Protocol(protocol), Port: port, Name: name})
	}
	return out
}

// Delete removes the imposter on port and returns its definition, or false
// when there was none.
func (r *Repository) Delete(port int) (map[string]any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, exists := r.imposters[port]
	if !exists {
		return nil, false
	}
	delete(r.imposters, port)
	return rec.definition, true
}

// DeleteAll removes every imposter and returns their definitions ordered by port.
func (r *Repository) DeleteAll() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]map[string]any, 0, len(r.imposters))
	for _, port := range slices.Sorted(maps.Keys(r.imposters)) {
		out = append(out, r.imposters[port].definition)
	}
	clear(r.imposters)
	return out
}

// AddStub inserts stub at index, or appends it when index is nil.
func (r *Repository) AddStub(port int, index *int, stub any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, exists := r.imposters[port]
	if !exists {
		return fmt.Errorf("%w: %d", ErrNoSuchPort, port)
	}
	stubs, _ := rec.definition["stubs"].([]any)
	at := len(stubs)
	if index != nil {
		if *index < 0 || *index > len(stubs) {
			return fmt.Errorf("%w: %d", ErrIndexInvalid, *index)
		}
		at = *index
	}
	def := maps.Clone(rec.definition)
	def["stubs"] = slices.Insert(slices.Clone(stubs), at, stub)
	rec.definition = def
	return nil
}

// ReplaceStubs overwrites the stubs of the imposter on port.
func (r *Repository) ReplaceStubs(port int, stubs []any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, exists := r.imposters[port]
	if !exists {
		return fmt.Errorf("%w: %d", ErrNoSuchPort, port)
	}
	if stubs == nil {
		stubs = []any{}
	}
	def := maps.Clone(rec.definition)
	def["stubs"] = stubs
	rec.definition = def
	return nil
}

// AppendRequest adds req to the request log of the imposter on port.
func (r *Repository) AppendRequest(port int, req any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, exists := r.imposters[port]
	if !exists {
		return fmt.Errorf("%w: %d", ErrNoSuchPort, port)
	}
	rec.requests = append(rec.requests, req)
	return nil
}

// ClearRequests empties the request log of the imposter on port.
func (r *Repository) ClearRequests(port int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, exists := r.imposters[port]
	if !exists {
		return fmt.Errorf("%w: %d", ErrNoSuchPort, port)
	}
	rec.requests = []any{}
	return nil
}
