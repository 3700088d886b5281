package datastore

import (
	"context"
	"fmt"
	"net/url"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/imap-mag/magvault/pkg/configs"
	mlog "github.com/imap-mag/magvault/pkg/log"
)

// ArchiveClient mirrors swept versions into an object store bucket.
type ArchiveClient struct {
	*minio.Client
	bucket string
}

// newArchiveClient initializes the MinIO client and ensures the bucket.
func newArchiveClient(ctx context.Context, cfg *configs.ArchiveConfig) (*ArchiveClient, error) {
	endpoint := cfg.Endpoint

	useSSL := cfg.UseSSL
	// accept endpoints with a scheme (http:// or https://)
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}

		mlog.Logger().Info().Str("bucket", cfg.Bucket).Msg("archive bucket created")
	}

	mlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("archive mirror connected")

	return &ArchiveClient{Client: cli, bucket: cfg.Bucket}, nil
}

// Bucket returns the archive bucket name.
func (a *ArchiveClient) Bucket() string { return a.bucket }

// Put uploads a local file under its store relative path as the object key.
func (a *ArchiveClient) Put(ctx context.Context, localPath, rel string) (minio.UploadInfo, error) {
	return a.FPutObject(ctx, a.bucket, rel, localPath, minio.PutObjectOptions{})
}

// Exists reports whether an object is already archived.
func (a *ArchiveClient) Exists(ctx context.Context, rel string) (bool, error) {
	_, err := a.StatObject(ctx, a.bucket, rel, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
		return false, nil
	}

	return false, err
}

// HealthCheck verifies the bucket is reachable.
func (a *ArchiveClient) HealthCheck(ctx context.Context) error {
	_, err := a.BucketExists(ctx, a.bucket)
	return err
}
