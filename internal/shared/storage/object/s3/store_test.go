package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"contract-backend/internal/shared/storage/object"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "contract_1.pdf", want: "contract_1.pdf"},
		{name: "simple prefix", prefix: "contracts", key: "contract_1.pdf", want: "contracts/contract_1.pdf"},
		{name: "prefix trailing slash", prefix: "contracts/", key: "contract_1.pdf", want: "contracts/contract_1.pdf"},
		{name: "prefix and key slashes", prefix: "/contracts/", key: "/contract_1.pdf", want: "contracts/contract_1.pdf"},
		{name: "nested prefix", prefix: "archive/contracts", key: "contract_1.pdf", want: "archive/contracts/contract_1.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  map[string]string
	deleted []string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[aws.ToString(in.Key)] = string(data)
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.bodies[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	delete(f.bodies, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestSaveUsesPrefixAndEncryption(t *testing.T) {
	fake := &fakeS3{}
	store := NewWithClient(fake, "bucket", "contracts/", "kms-key")

	n, err := store.SaveWithKey(context.Background(), "contract_1.pdf", "application/pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 bytes, got %d", n)
	}
	if len(fake.puts) != 1 {
		t.Fatalf("expected one put, got %d", len(fake.puts))
	}
	put := fake.puts[0]
	if aws.ToString(put.Key) != "contracts/contract_1.pdf" {
		t.Fatalf("unexpected key %q", aws.ToString(put.Key))
	}
	if put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(put.SSEKMSKeyId) != "kms-key" {
		t.Fatalf("expected kms encryption, got %v %q", put.ServerSideEncryption, aws.ToString(put.SSEKMSKeyId))
	}
}

func TestOpenMissingMapsToNotFound(t *testing.T) {
	store := NewWithClient(&fakeS3{}, "bucket", "", "")
	if _, err := store.Open(context.Background(), "missing.pdf"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUsesPrefixedKey(t *testing.T) {
	fake := &fakeS3{}
	store := NewWithClient(fake, "bucket", "archive", "")
	if err := store.Delete(context.Background(), "contract_2.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "archive/contract_2.pdf" {
		t.Fatalf("unexpected deletes %v", fake.deleted)
	}
}
