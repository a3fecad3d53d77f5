package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in          string
		bucket, key string
		ok          bool
	}{
		{"s3://beds/night.wav", "beds", "night.wav", true},
		{"s3://beds/2026/10/night.wav", "beds", "2026/10/night.wav", true},
		{"s3://beds", "", "", false},
		{"s3://beds/", "", "", false},
		{"s3:///night.wav", "", "", false},
		{"s3://beds/dir/", "", "", false},
		{"/tmp/night.wav", "", "", false},
	}
	for _, tt := range tests {
		bucket, key, err := ParseS3URL(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseS3URL(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if bucket != tt.bucket || key != tt.key {
			t.Errorf("ParseS3URL(%q) = %q, %q", tt.in, bucket, key)
		}
	}
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out", "bed.wav")
	store, key, err := Open(context.Background(), target, S3Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*Local); !ok {
		t.Fatalf("store = %T, want *Local", store)
	}
	if key != "bed.wav" || store.Location(key) != target {
		t.Fatalf("key = %q location = %q", key, store.Location(key))
	}
}

func TestOpenS3(t *testing.T) {
	store, key, err := Open(context.Background(), "s3://beds/night/bed.wav", S3Config{
		Region:      "eu-west-1",
		Endpoint:    "http://127.0.0.1:9000",
		PathStyle:   true,
		AccessKeyID: "id", SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*S3Store); !ok {
		t.Fatalf("store = %T, want *S3Store", store)
	}
	if key != "night/bed.wav" || store.Location(key) != "s3://beds/night/bed.wav" {
		t.Fatalf("key = %q location = %q", key, store.Location(key))
	}
}

func TestS3ConfigCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "env-id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")
	t.Setenv("AWS_REGION", "ap-east-1")
	ctx := context.Background()

	creds, err := S3Config{}.credentials().Retrieve(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "env-id" || creds.Source != "environment" {
		t.Fatalf("creds = %+v", creds)
	}
	creds, err = S3Config{AccessKeyID: "cfg-id", SecretAccessKey: "cfg"}.credentials().Retrieve(ctx)
	if err != nil || creds.AccessKeyID != "cfg-id" {
		t.Fatalf("creds = %+v, %v", creds, err)
	}
	if r := (S3Config{}).region(); r != "ap-east-1" {
		t.Fatalf("region = %q", r)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "")
	if _, err := (S3Config{}).credentials().Retrieve(ctx); err == nil {
		t.Fatal("expected missing credentials error")
	}
}
