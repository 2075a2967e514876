package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"docprep-backend/internal/shared/storage/object"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "uploads/file.docx", want: "uploads/file.docx"},
		{name: "simple prefix", prefix: "root", key: "uploads/file.docx", want: "root/uploads/file.docx"},
		{name: "prefix trailing slash", prefix: "root/", key: "uploads/file.docx", want: "root/uploads/file.docx"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/uploads/file.docx", want: "root/uploads/file.docx"},
		{name: "nested prefix", prefix: "root/sub", key: "converted/file.docx", want: "root/sub/converted/file.docx"},
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

type fakeObject struct {
	data        []byte
	contentType string
	sse         s3types.ServerSideEncryption
	modified    time.Time
}

type fakeS3 struct {
	objects map[string]fakeObject
	pageLen int
}

func newFake() *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}, pageLen: 1}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = fakeObject{
		data:        data,
		contentType: aws.ToString(in.ContentType),
		sse:         in.ServerSideEncryption,
		modified:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for i, k := range keys {
		if i == f.pageLen {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = aws.String(keys[i-1])
			break
		}
		obj := f.objects[k]
		out.Contents = append(out.Contents, s3types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: aws.Time(obj.modified),
		})
	}
	return out, nil
}

func TestStoreRoundTrip(t *testing.T) {
	fake := newFake()
	store := newWithClient(fake, "bucket", "/root/", "")
	ctx := context.Background()

	n, err := store.SaveWithKey(ctx, "uploads/a.docx", "application/zip", strings.NewReader("hello"))
	if err != nil || n != 5 {
		t.Fatalf("SaveWithKey = (%d, %v)", n, err)
	}
	stored, ok := fake.objects["root/uploads/a.docx"]
	if !ok {
		t.Fatalf("expected prefixed key, have %v", fake.objects)
	}
	if stored.sse != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256 encryption, got %q", stored.sse)
	}

	rc, err := store.Open(ctx, "uploads/a.docx")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "hello" {
		t.Fatalf("unexpected body %q", body)
	}

	info, err := store.Stat(ctx, "uploads/a.docx")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Key != "uploads/a.docx" || info.Size != 5 || info.ContentType != "application/zip" {
		t.Fatalf("unexpected info %+v", info)
	}

	if err := store.Delete(ctx, "uploads/a.docx"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, "uploads/a.docx"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "uploads/a.docx"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting missing key, got %v", err)
	}
}

func TestStoreUsesKMSWhenConfigured(t *testing.T) {
	fake := newFake()
	store := newWithClient(fake, "bucket", "", "kms-key")
	if _, err := store.SaveWithKey(context.Background(), "converted/b.docx", "x", strings.NewReader("b")); err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}
	if fake.objects["converted/b.docx"].sse != s3types.ServerSideEncryptionAwsKms {
		t.Fatalf("expected kms encryption")
	}
}

func TestStoreListPaginates(t *testing.T) {
	fake := newFake()
	store := newWithClient(fake, "bucket", "root", "")
	ctx := context.Background()
	for _, key := range []string{"uploads/1.docx", "uploads/2.doc", "converted/2.docx", "uploads/3.rtf"} {
		if _, err := store.SaveWithKey(ctx, key, "", strings.NewReader(key)); err != nil {
			t.Fatalf("SaveWithKey %s: %v", key, err)
		}
	}

	got, err := store.List(ctx, object.UploadsPrefix)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 uploads, got %+v", got)
	}
	for i, want := range []string{"uploads/1.docx", "uploads/2.doc", "uploads/3.rtf"} {
		if got[i].Key != want {
			t.Fatalf("key %d = %q, want %q", i, got[i].Key, want)
		}
	}
}

func TestStoreRejectsTraversal(t *testing.T) {
	store := newWithClient(newFake(), "bucket", "", "")
	if _, err := store.Open(context.Background(), "../secret"); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
