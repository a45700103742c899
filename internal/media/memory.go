package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"servicehub/internal/domain"

	"github.com/google/uuid"
)

// ErrInjected is returned by MemoryStore when a failure was requested
var ErrInjected = errors.New("media: injected failure")

type memoryObject struct {
	folder string
	data   []byte
}

// MemoryStore keeps objects in process. It backs MEDIA_DRIVER=memory and
// the tests, and supports failure injection.
type MemoryStore struct {
	mu              sync.Mutex
	objects         map[string]memoryObject
	uploadCalls     int
	deleteCalls     int
	failUploadAfter int
	failDeletes     bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:         make(map[string]memoryObject),
		failUploadAfter: -1,
	}
}

func (s *MemoryStore) Upload(ctx context.Context, f File, opts UploadOptions) (domain.MediaRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.MediaRef{}, err
	}
	if f.Content == nil {
		return domain.MediaRef{}, ErrNoContent
	}
	data, err := io.ReadAll(f.Content)
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("media/memory: read: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadCalls++
	if s.failUploadAfter >= 0 && s.uploadCalls > s.failUploadAfter {
		return domain.MediaRef{}, ErrInjected
	}

	id := opts.Folder + "/" + uuid.NewString()
	s.objects[id] = memoryObject{folder: opts.Folder, data: data}

	ext := f.Ext()
	if ext == "" {
		ext = "bin"
	}
	return domain.MediaRef{
		URL:      "memory://media/" + id + "." + ext,
		PublicID: id,
	}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteCalls++
	if s.failDeletes {
		return ErrInjected
	}
	delete(s.objects, publicID)
	return nil
}

// FailUploadsAfter makes every upload after the first n fail. A negative n
// disables the failure.
func (s *MemoryStore) FailUploadsAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUploadAfter = n + s.uploadCalls
	if n < 0 {
		s.failUploadAfter = -1
	}
}

// FailDeletes makes every delete fail while on is true
func (s *MemoryStore) FailDeletes(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDeletes = on
}

// Has reports whether an object with publicID is stored
func (s *MemoryStore) Has(publicID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[publicID]
	return ok
}

// Len returns the number of stored objects
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *MemoryStore) UploadCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadCalls
}

func (s *MemoryStore) DeleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCalls
}
