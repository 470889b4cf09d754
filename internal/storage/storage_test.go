package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir(), "", zap.NewNop())
	key := Key(PrefixPurchaseOrders, "PO-20240315-000001.pdf")

	require.NoError(t, store.Put(ctx, key, []byte("%PDF-1.3"), "application/pdf"))

	body, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3"), body)
	assert.Equal(t, "/files/po-pdfs/PO-20240315-000001.pdf", store.URL(key))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "delete is idempotent")

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "", zap.NewNop())

	err := store.Put(context.Background(), "../outside.txt", []byte("x"), "text/plain")
	assert.Error(t, err)

	_, err = store.Get(context.Background(), "quotations/../../etc/passwd")
	assert.Error(t, err)
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.objects[aws.StringValue(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{objects: map[string][]byte{}}
	store := NewS3StoreWithClient(client, "assets", "ap-south-1", "", zap.NewNop())
	key := Key(PrefixGRNs, "GRN-20240401-000003.pdf")

	require.NoError(t, store.Put(ctx, key, []byte("grn"), "application/pdf"))
	body, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "grn", string(body))
	assert.Equal(t, "https://assets.s3.ap-south-1.amazonaws.com/grn-pdfs/GRN-20240401-000003.pdf", store.URL(key))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}
