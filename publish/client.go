// Package publish mirrors finished autoloaders and their manifests to S3.
package publish

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/capforge/autoloader/hashes"
)

// objectAPI is the part of the S3 client used here
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Client provides S3 upload operations
type Client struct {
	api    objectAPI
	bucket string
	prefix string
}

// NewClient creates a new S3 client using the default credential chain
func NewClient(ctx context.Context, bucket, region, prefix string) (*Client, error) {
	if bucket == "" {
		return nil, errors.New("publish: bucket is required")
	}
	slog.Info("s3_client_init", "bucket", bucket, "region", region)

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		slog.Error("aws_config_load_failed", "error", err)
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		api:    s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Key returns the object key for a local file.
func (c *Client) Key(localPath string) string {
	return path.Join(c.prefix, filepath.Base(localPath))
}

// UploadResult contains upload metadata
type UploadResult struct {
	Key    string
	SHA256 string
	Size   int64
}

// Upload stores the file at localPath under Key(localPath).
// The sha256 of the file is sent along so that S3 rejects a corrupted transfer.
func (c *Client) Upload(ctx context.Context, localPath string) (*UploadResult, error) {
	key := c.Key(localPath)
	slog.Info("s3_upload_start", "bucket", c.bucket, "s3_key", key, "local_path", localPath)

	sums, err := hashes.Compute(localPath, []string{"sha256"})
	if err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(c.bucket),
		Key:            aws.String(key),
		Body:           f,
		ContentLength:  aws.Int64(info.Size()),
		ChecksumSHA256: aws.String(base64.StdEncoding.EncodeToString(sums[0].Sum)),
	})
	if err != nil {
		slog.Error("s3_put_object_failed", "s3_key", key, "error", err)
		return nil, fmt.Errorf("failed to put object: %w", err)
	}

	slog.Info("s3_upload_complete", "s3_key", key, "size", info.Size(), "sha256", sums[0].Value[:16]+"...")
	return &UploadResult{Key: key, SHA256: sums[0].Value, Size: info.Size()}, nil
}

// Exists checks if an object exists in S3
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			slog.Info("s3_object_not_found", "s3_key", key)
			return false, nil
		}
		slog.Error("s3_head_object_failed", "s3_key", key, "error", err)
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}
