package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{useSSL: false}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// Minio stores blobs in an S3 compatible bucket.
type Minio struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinio(opts ...MinioOpts) (*Minio, error) {
	cfg := newConfig(opts...)
	if cfg.endpoint == "" || cfg.bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &Minio{cfg: cfg, client: client}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.cfg.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.cfg.bucket, err)
	}
	return nil
}

func (s *Minio) Put(ctx context.Context, key string, content []byte) (string, error) {
	ref, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.cfg.bucket, ref, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", ref, err)
	}
	return ref, nil
}

func (s *Minio) Get(ctx context.Context, ref string) ([]byte, error) {
	key, err := cleanKey(ref)
	if err != nil {
		return nil, err
	}

	object, err := s.client.GetObject(ctx, s.cfg.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, err
	}
	return data, nil
}

func (s *Minio) Type() string {
	return "minio"
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
