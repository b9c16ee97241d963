// Package memory is an in-process filestore.Store. It backs local runs
// without object storage and the tests of packages built on filestore.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/koustreak/sqldesk/internal/errs"
	"github.com/koustreak/sqldesk/internal/filestore"
)

// Store keeps objects in a map. Contents are lost on restart.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	mu      sync.RWMutex
	objects map[string]stored
	now     func() time.Time
}

type stored struct {
	data []byte
	info filestore.ObjectInfo
}

func New() *Store {
	return &Store{objects: make(map[string]stored), now: time.Now}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*filestore.ObjectInfo, error) {
	if key == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "object key is required")
	}
	if size >= 0 {
		r = io.LimitReader(r, size)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read object body", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTimeout, "put canceled", err)
	}

	sum := md5.Sum(data)
	info := filestore.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: s.now(),
	}

	s.mu.Lock()
	s.objects[key] = stored{data: data, info: info}
	s.mu.Unlock()

	return &info, nil
}

func (s *Store) Get(_ context.Context, key string) (filestore.Object, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "object "+key+" not found")
	}

	info := obj.info
	return &object{Reader: bytes.NewReader(obj.data), info: &info}, nil
}

func (s *Store) List(_ context.Context, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]filestore.ObjectInfo, 0)
	for _, key := range slices.Sorted(maps.Keys(s.objects)) {
		if !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		results = append(results, s.objects[key].info)
		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
	}
	return results, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

type object struct {
	*bytes.Reader
	info *filestore.ObjectInfo
}

func (o *object) Close() error { return nil }

func (o *object) Info() *filestore.ObjectInfo { return o.info }
