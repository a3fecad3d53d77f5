package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// mockS3 is an in-memory S3 backend.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    map[string]*s3.PutObjectInput

	putErr error
}

func newMockS3() *mockS3 {
	return &mockS3{
		objects: make(map[string][]byte),
		puts:    make(map[string]*s3.PutObjectInput),
	}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	m.puts[*in.Key] = in
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3WriteCarriesMeta(t *testing.T) {
	mock := newMockS3()
	store := NewS3(mock, "beds", "renders")
	w, err := store.Write(context.Background(), "night.wav", Meta{
		ContentType: ContentTypeWAV,
		Size:        4,
		Metadata:    map[string]string{"seed": "42"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("RIFF")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	in := mock.puts["renders/night.wav"]
	if in == nil {
		t.Fatalf("no put for prefixed key; objects = %v", mock.objects)
	}
	if *in.ContentType != ContentTypeWAV || *in.ContentLength != 4 || in.Metadata["seed"] != "42" {
		t.Fatalf("put input = %+v", in)
	}
	if got := readAll(t, store, "night.wav"); got != "RIFF" {
		t.Fatalf("read back %q", got)
	}
	if loc := store.Location("night.wav"); loc != "s3://beds/renders/night.wav" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestS3WriteUnknownSize(t *testing.T) {
	mock := newMockS3()
	store := NewS3(mock, "beds", "")
	w, err := store.Write(context.Background(), "b.wav", Meta{Size: -1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("xy")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if mock.puts["b.wav"].ContentLength != nil {
		t.Fatal("unknown size should leave ContentLength unset")
	}
}

func TestS3UploadError(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("access denied")
	store := NewS3(mock, "beds", "")
	w, err := store.Write(context.Background(), "a.wav", Meta{Size: -1})
	if err != nil {
		t.Fatal(err)
	}
	// The failed upload closes the pipe, so writes fail instead of hanging.
	w.Write([]byte("data"))
	if err := w.Close(); err == nil || !errors.Is(err, mock.putErr) {
		t.Fatalf("Close = %v, want upload error", err)
	}
}

func TestS3NotFound(t *testing.T) {
	store := NewS3(newMockS3(), "beds", "")
	ctx := context.Background()
	if _, err := store.Read(ctx, "missing.wav"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read err = %v, want ErrNotFound", err)
	}
	if ok, err := store.Exists(ctx, "missing.wav"); err != nil || ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if err := store.Delete(ctx, "missing.wav"); err != nil {
		t.Fatal(err)
	}
}

func TestS3Abort(t *testing.T) {
	mock := newMockS3()
	s := NewS3(mock, "beds", "")
	ctx := context.Background()
	w, err := s.Write(ctx, "bed.wav", Meta{Size: 100})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "partial"); err != nil {
		t.Fatal(err)
	}
	if err := Abort(w, errors.New("render failed")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "bed.wav"); ok {
		t.Fatal("aborted object was stored")
	}
}
