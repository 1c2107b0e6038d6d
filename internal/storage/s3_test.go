package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 is an in-memory stand-in for both the S3 client and the uploader.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	headErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(bytes.Clone(data)))}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &manager.UploadOutput{Key: in.Key}, nil
}

func TestS3Storage_WritesUnderPrefix(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Storage(fake, fake, "bucket", "home")

	if err := s.Put(ctx, "theme", []byte(`"dark"`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, ok := fake.objects["home/theme.json"]; !ok {
		t.Fatalf("object not stored under prefix, have %v", fake.objects)
	}
	if ct := fake.types["home/theme.json"]; ct != "application/json" {
		t.Errorf("ContentType = %q, want %q", ct, "application/json")
	}
}

func TestS3Storage_ValidateSetupReportsBucketErrors(t *testing.T) {
	fake := newFakeS3()
	fake.headErr = errors.New("access denied")
	s := newS3Storage(fake, fake, "bucket", "")

	if err := s.ValidateSetup(context.Background()); err == nil {
		t.Fatal("ValidateSetup() expected error")
	}
}
