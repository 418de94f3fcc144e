package storage

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStore keeps objects in process memory and serves them over HTTP
// under its media prefix. It backs local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	prefix  string
	opts    options
	now     func() time.Time
}

// NewMemoryStore returns an empty store whose public URLs start with prefix.
func NewMemoryStore(prefix string, opts ...Option) *MemoryStore {
	prefix = "/" + strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "/" {
		prefix = "/media"
	}
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		prefix:  prefix,
		opts:    buildOptions(opts),
		now:     time.Now,
	}
}

func (s *MemoryStore) Upload(ctx context.Context, name, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := ValidateObjectName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = memoryObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		modified:    s.now(),
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := ValidateObjectName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return ErrNotFound
	}
	delete(s.objects, name)
	return nil
}

func (s *MemoryStore) PublicURL(name string) string {
	return joinURL(s.opts.publicBaseURL+s.prefix, name)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len reports how many objects are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Prefix is the URL path the store is mounted at.
func (s *MemoryStore) Prefix() string { return s.prefix }

// ServeHTTP serves an object by the last segment of the request path.
func (s *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := ObjectNameFromURL(r.URL.Path)
	if _, err := ValidateObjectName(name); err != nil {
		http.NotFound(w, r)
		return
	}
	s.mu.RLock()
	obj, ok := s.objects[name]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	w.Header().Set("Cache-Control", s.opts.cacheControl)
	http.ServeContent(w, r, name, obj.modified, bytes.NewReader(obj.data))
}
