// Package hostfiles registers local files for serving through the tracking
// HTTP server, so sent messages can link to attachments by stable URL.
package hostfiles

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Record is one hosted file. Records are immutable and live until process
// exit.
type Record struct {
	ID          string
	SourcePath  string
	DisplayName string
}

// Registry maps hosted file ids to local paths.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]Record
	byKey map[string]string // absolute path -> id, so re-hosting is idempotent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:  make(map[string]Record),
		byKey: make(map[string]string),
	}
}

// Host registers a file and returns its record. Hosting the same path twice
// returns the original record.
func (r *Registry) Host(path string) (Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Record{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Record{}, fmt.Errorf("host file: %w", err)
	}
	if info.IsDir() {
		return Record{}, fmt.Errorf("host file: %s is a directory", abs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[abs]; ok {
		return r.byID[id], nil
	}
	rec := Record{
		ID:          uuid.NewString(),
		SourcePath:  abs,
		DisplayName: filepath.Base(abs),
	}
	r.byID[rec.ID] = rec
	r.byKey[abs] = rec.ID
	return rec, nil
}

// Resolve returns the local path and display name for an id. Satisfies the
// tracking handler's FileResolver.
func (r *Registry) Resolve(id string) (string, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return "", "", false
	}
	return rec.SourcePath, rec.DisplayName, true
}

// URLPath returns the serve path for a record, matching the tracking
// server's file route.
func (rec Record) URLPath() string {
	return "/file/" + rec.ID + "/" + rec.DisplayName
}
