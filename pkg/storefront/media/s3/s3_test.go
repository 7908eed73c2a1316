package s3

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

func TestS3Backend_BasicConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(context.Background(), Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend, err := New(context.Background(), Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.config.Region)
	})
}

func TestS3Backend_KeyPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "abc.jpg"},
		{"shop-", "shop-/abc.jpg"},
		{"images/", "images/abc.jpg"},
		{"a/b", "a/b/abc.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			backend, err := New(context.Background(), Config{
				Bucket:          "shop",
				AccessKeyID:     "k",
				SecretAccessKey: "s",
				KeyPrefix:       tt.prefix,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, backend.ObjectKey("abc.jpg"))

			id := storefront.ImageIdentifier(backend.PublicURL("abc.jpg"))
			assert.Equal(t, backend.ObjectKey("abc"), backend.ObjectKey(id))
		})
	}
}

func TestS3Backend_PublicURL(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "aws virtual host",
			config: Config{Bucket: "shop", Region: "eu-west-1", KeyPrefix: "images/"},
			want:   "https://shop.s3.eu-west-1.amazonaws.com/images/abc.jpg",
		},
		{
			name:   "custom endpoint",
			config: Config{Bucket: "shop", Endpoint: "http://localhost:9000/", UsePathStyle: true},
			want:   "http://localhost:9000/shop/abc.jpg",
		},
		{
			name:   "prefix without trailing slash",
			config: Config{Bucket: "shop", PublicBaseURL: "https://cdn.example.com", KeyPrefix: "shop-"},
			want:   "https://cdn.example.com/shop-/abc.jpg",
		},
		{
			name:   "public base url",
			config: Config{Bucket: "shop", PublicBaseURL: "https://cdn.example.com", KeyPrefix: "p/"},
			want:   "https://cdn.example.com/p/abc.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.AccessKeyID = "k"
			tt.config.SecretAccessKey = "s"
			backend, err := New(context.Background(), tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, backend.PublicURL("abc.jpg"))
			assert.Equal(t, "abc", storefront.ImageIdentifier(backend.PublicURL("abc.jpg")))
		})
	}
}

// TestS3Backend_Integration requires a running MinIO instance or S3 credentials
func TestS3Backend_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	endpoint := os.Getenv("AWS_S3_ENDPOINT")
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	bucket := os.Getenv("AWS_S3_BUCKET")
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		t.Skip("Skipping integration test: S3/MinIO environment variables not set")
	}

	ctx := context.Background()
	backend, err := New(ctx, Config{
		Bucket:                 bucket,
		Region:                 "us-east-1",
		AccessKeyID:            accessKey,
		SecretAccessKey:        secretKey,
		Endpoint:               endpoint,
		UsePathStyle:           true,
		KeyPrefix:              "storefront-test/",
		CreateBucketIfNotExist: true,
	})
	require.NoError(t, err)

	obj, err := backend.Upload(ctx, bytes.NewReader([]byte("hello")), storefront.UploadParams{
		Filename:    "hello.txt",
		ContentType: "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, obj.Identifier, storefront.ImageIdentifier(obj.SecureURL))

	require.NoError(t, backend.Delete(ctx, obj.Identifier))
	assert.ErrorIs(t, backend.Delete(ctx, obj.Identifier), ErrObjectNotFound)
}
