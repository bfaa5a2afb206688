package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hszk-dev/clipshare/internal/domain/repository"
)

// objectReader abstracts minio.Object for testability.
type objectReader interface {
	io.ReadCloser
	Stat() (minio.ObjectInfo, error)
}

// minioClient is the subset of *minio.Client the storage uses.
type minioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PresignedPutObject(ctx context.Context, bucketName, objectName string, expiry time.Duration) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (objectReader, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// minioAdapter exists because *minio.Client.GetObject returns the concrete
// *minio.Object.
type minioAdapter struct {
	*minio.Client
}

func (a minioAdapter) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (objectReader, error) {
	obj, err := a.Client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// ClientConfig holds configuration for the MinIO client.
type ClientConfig struct {
	Endpoint string
	// PublicEndpoint is the host clients reach; presigned and public URLs use
	// it when set.
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

// Client implements repository.ObjectStorage on MinIO.
type Client struct {
	client          minioClient
	presignedClient minioClient
	bucket          string
	publicBase      string
}

var _ repository.ObjectStorage = (*Client)(nil)

// NewClient verifies the bucket exists so misconfiguration fails at startup.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	internal, err := newMinio(cfg.Endpoint, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	presigned := internal
	if cfg.PublicEndpoint != "" {
		if presigned, err = newMinio(cfg.PublicEndpoint, cfg); err != nil {
			return nil, fmt.Errorf("failed to create presigned minio client: %w", err)
		}
	}

	return newClientWithMinioClient(ctx, internal, presigned, cfg.Bucket, publicBaseURL(cfg))
}

func newMinio(endpoint string, cfg ClientConfig) (minioClient, error) {
	c, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return minioAdapter{c}, nil
}

// publicBaseURL is scheme://host/bucket for path-style object URLs.
func publicBaseURL(cfg ClientConfig) string {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	host := cfg.PublicEndpoint
	if host == "" {
		host = cfg.Endpoint
	}
	return fmt.Sprintf("%s://%s/%s", scheme, host, cfg.Bucket)
}

func newClientWithMinioClient(ctx context.Context, client, presignedClient minioClient, bucket, publicBase string) (*Client, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", repository.ErrBucketNotFound, bucket)
	}

	return &Client{
		client:          client,
		presignedClient: presignedClient,
		bucket:          bucket,
		publicBase:      strings.TrimSuffix(publicBase, "/"),
	}, nil
}

func (c *Client) GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.presignedClient.PresignedPutObject(ctx, c.bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}
	return u.String(), nil
}

// Upload stores an object of unknown size. HLS segments and thumbnails are
// written once per key, so they are served as immutable.
func (c *Client) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if isImmutable(key) {
		opts.CacheControl = "public, max-age=31536000, immutable"
	}

	if _, err := c.client.PutObject(ctx, c.bucket, key, reader, -1, opts); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

func isImmutable(key string) bool {
	return strings.HasSuffix(key, ".ts") || strings.HasSuffix(key, ".jpg")
}

// Download returns a reader the caller must close.
// GetObject is lazy, so Stat is used to surface a missing key up front.
func (c *Client) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", repository.ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return obj, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// DeletePrefix streams the listing under prefix into a batch removal.
// Objects that failed to delete are not counted.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listed := 0
	var listErr error
	toRemove := make(chan minio.ObjectInfo)

	go func() {
		defer close(toRemove)
		for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case toRemove <- obj:
				listed++
			case <-ctx.Done():
				return
			}
		}
	}()

	failed := 0
	var firstErr error
	for rmErr := range c.client.RemoveObjects(ctx, c.bucket, toRemove, minio.RemoveObjectsOptions{}) {
		failed++
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to delete %s: %w", rmErr.ObjectName, rmErr.Err)
		}
	}

	// RemoveObjects closes its error channel only after toRemove is closed,
	// so listed and listErr are settled here.
	removed := listed - failed
	if listErr != nil {
		return removed, fmt.Errorf("failed to list objects under %s: %w", prefix, listErr)
	}
	return removed, firstErr
}

func (c *Client) ObjectURL(key string) string {
	return c.publicBase + "/" + strings.TrimPrefix(key, "/")
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// Ping checks bucket access. Used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.BucketExists(ctx, c.bucket); err != nil {
		return fmt.Errorf("failed to ping minio: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
