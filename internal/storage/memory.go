package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
	generation  int64
}

// MemoryStore keeps objects in process memory. Used for STORAGE_BACKEND=memory
// and as the test double for the other packages.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	nextGen int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(key, data, contentType)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, _, err := s.GetVersioned(ctx, key)
	return data, err
}

func (s *MemoryStore) GetVersioned(ctx context.Context, key string) ([]byte, Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, NoGeneration, ErrNotFound
	}
	return append([]byte(nil), obj.data...), genString(obj.generation), nil
}

func (s *MemoryStore) PutIfMatch(ctx context.Context, key string, data []byte, contentType string, match Generation) (Generation, error) {
	if !validKey(key) {
		return NoGeneration, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := NoGeneration
	if obj, ok := s.objects[key]; ok {
		current = genString(obj.generation)
	}
	if current != match {
		return current, ErrConflict
	}
	return genString(s.store(key, data, contentType)), nil
}

// Keys lists stored keys in lexical order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContentType returns the content type recorded for key.
func (s *MemoryStore) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key].contentType
}

func (s *MemoryStore) store(key string, data []byte, contentType string) int64 {
	s.nextGen++
	s.objects[key] = memObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		generation:  s.nextGen,
	}
	return s.nextGen
}

func genString(g int64) Generation {
	return Generation(strconv.FormatInt(g, 10))
}
