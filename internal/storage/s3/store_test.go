package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/sheetqa/sheetqa/internal/storage"
)

func TestPutUsesPrefixAndNormalizedKey(t *testing.T) {
	fake := &fakeClient{}
	archive, err := NewWithClient("bucket-a", "sheetqa/prod", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	_, err = archive.Put(context.Background(), "/uploads/20260101T000000_sales.xlsx", bytes.NewBufferString("abc"), 3, storage.PutOptions{ContentType: "application/octet-stream"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if fake.lastPutBucket != "bucket-a" {
		t.Fatalf("bucket = %q", fake.lastPutBucket)
	}
	if fake.lastPutKey != "sheetqa/prod/uploads/20260101T000000_sales.xlsx" {
		t.Fatalf("key = %q", fake.lastPutKey)
	}
	if fake.lastPutContentType != "application/octet-stream" {
		t.Fatalf("content type = %q", fake.lastPutContentType)
	}
}

func TestPutRejectsPathTraversal(t *testing.T) {
	fake := &fakeClient{}
	archive, err := NewWithClient("bucket-a", "", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}
	_, err = archive.Put(context.Background(), "../secrets.txt", bytes.NewBufferString("x"), 1, storage.PutOptions{})
	if err == nil {
		t.Fatal("expected path traversal validation error")
	}
	if fake.lastPutKey != "" {
		t.Fatalf("traversal key reached the client: %q", fake.lastPutKey)
	}
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	fake := &fakeClient{bucketExists: false}
	archive, err := NewWithClient("bucket-a", "", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	if err := archive.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() error = %v", err)
	}
	if !fake.createBucketCalled {
		t.Fatal("expected CreateBucket to be called")
	}
}

func TestEnsureBucketSkipsExisting(t *testing.T) {
	fake := &fakeClient{bucketExists: true}
	archive, err := NewWithClient("bucket-a", "", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	if err := archive.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() error = %v", err)
	}
	if fake.createBucketCalled {
		t.Fatal("CreateBucket called for existing bucket")
	}
}

func TestParseEndpoint(t *testing.T) {
	endpoint, secure, err := parseEndpoint("https://minio.example.com", false)
	if err != nil {
		t.Fatalf("parseEndpoint() error = %v", err)
	}
	if endpoint != "minio.example.com" || !secure {
		t.Fatalf("endpoint/secure = %q/%v", endpoint, secure)
	}

	endpoint, secure, err = parseEndpoint("localhost:9000", false)
	if err != nil {
		t.Fatalf("parseEndpoint() error = %v", err)
	}
	if endpoint != "localhost:9000" || secure {
		t.Fatalf("endpoint/secure = %q/%v", endpoint, secure)
	}
}

type fakeClient struct {
	lastPutBucket      string
	lastPutKey         string
	lastPutContentType string
	bucketExists       bool
	createBucketCalled bool
}

func (f *fakeClient) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	f.lastPutBucket = bucket
	f.lastPutKey = key
	f.lastPutContentType = contentType
	return storage.ObjectInfo{Key: key, Size: size}, nil
}

func (f *fakeClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeClient) CreateBucket(ctx context.Context, bucket, region string) error {
	f.createBucketCalled = true
	return nil
}
