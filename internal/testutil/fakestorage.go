package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// FakeStorage is an in-memory ObjectClient.
type FakeStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{Objects: map[string][]byte{}}
}

func (s *FakeStorage) UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.Objects[bucket+"/"+key] = cp
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key), nil
}

func (s *FakeStorage) DeleteFile(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, bucket+"/"+key)
	return nil
}

func (s *FakeStorage) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.Objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return data, nil
}

func (s *FakeStorage) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	data, err := s.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
