// Package objectstore wraps the S3 API for the durable blob store that
// backs RawBlobs. It targets any S3-compatible endpoint (MinIO in
// production) via a custom endpoint resolver, grounded on the manifest
// evidence for aws-sdk-go-v2 usage in the retrieved example pack.
package objectstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the connection parameters for the object store.
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Store wraps an s3.Client bound to a single bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// New builds a Store against cfg.Endpoint, using static credentials and
// path-style addressing (required by most MinIO deployments).
func New(ctx context.Context, cfg Config) (*Store, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: cfg.Endpoint, SigningRegion: cfg.Region}, nil
		})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// RawBlobKey builds the fixed object key scheme:
// <edition_date>/<publication_slug>/raw/<sha256(url)>.<ext>
func RawBlobKey(editionDate time.Time, publicationSlug, sourceURL, ext string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return fmt.Sprintf("%s/%s/raw/%s.%s",
		editionDate.Format("2006-01-02"), publicationSlug, hex.EncodeToString(sum[:]), strings.TrimPrefix(ext, "."))
}

// Exists reports whether key is already present, used to implement
// Download's idempotency ("skip if key exists and force=false").
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put uploads body under key with the given content type and metadata.
// Keys are write-once; a second Put for the same key overwrites only on
// a forced re-download.
func (s *Store) Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("objectstore: put %s: %w", key, err)
	}
	return nil
}

// Get downloads the object at key in full. Readers must tolerate a
// not-found error ("not yet scraped").
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("objectstore: get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()
	return io.ReadAll(out.Body)
}

// GetMetadata returns the user metadata stored alongside key (e.g. the
// "source_url" Put recorded for raw blobs), without downloading the body.
func (s *Store) GetMetadata(ctx context.Context, key string) (map[string]string, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("objectstore: head %s: %w", key, err)
	}
	return out.Metadata, nil
}

// ListKeysUnderPrefix lists every object key beginning with prefix, used by
// ProcessEdition to enumerate an edition's raw blobs.
func (s *Store) ListKeysUnderPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("objectstore: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Delete removes key, used by the retention sweep job.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return fmt.Errorf("objectstore: delete %s: %w", key, err)
	}
	return nil
}

// SweepExpired deletes every object under prefix whose LastModified is
// older than olderThan, backing the RawBlob retention policy (default 7
// days).
func (s *Store) SweepExpired(ctx context.Context, prefix string, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	deleted := 0
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("objectstore: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(cutoff) {
				if err := s.Delete(ctx, aws.ToString(obj.Key)); err != nil {
					slog.Warn("retention sweep: delete failed", slog.String("key", aws.ToString(obj.Key)), slog.String("error", err.Error()))
					continue
				}
				deleted++
			}
		}
	}
	return deleted, nil
}

// KeyForURL mirrors RawBlobKey for callers that only have a raw URL and
// must infer the extension from it (falls back to "bin").
func KeyForURL(editionDate time.Time, publicationSlug, rawURL string) string {
	ext := "bin"
	if parsed, err := url.Parse(rawURL); err == nil {
		if idx := strings.LastIndex(parsed.Path, "."); idx >= 0 {
			ext = strings.TrimPrefix(parsed.Path[idx:], ".")
		}
	}
	return RawBlobKey(editionDate, publicationSlug, rawURL, ext)
}
