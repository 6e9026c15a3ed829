// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tomtom215/roster/internal/config"
)

// immutableCacheControl is set on every object; keys are never reused.
const immutableCacheControl = "public, max-age=31536000, immutable"

// S3 stores images in an S3-compatible bucket.
type S3 struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewS3 creates an S3 backend and verifies that the bucket exists.
func NewS3(ctx context.Context, cfg config.S3Config) (*S3, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	baseURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return &S3{client: client, bucket: cfg.Bucket, baseURL: baseURL + "/"}, nil
}

// Name implements Store.
func (s *S3) Name() string { return "s3" }

// Put implements Store.
func (s *S3) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: immutableCacheControl,
	})
	if err != nil {
		return "", &Error{Op: "put", Key: key, Transient: transientS3(err), Err: err}
	}
	return s.baseURL + key, nil
}

// Delete implements Store. S3 reports success for missing keys.
func (s *S3) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return &Error{Op: "delete", Key: key, Transient: transientS3(err), Err: err}
	}
	return nil
}

// KeyFromURL implements Store.
func (s *S3) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, s.baseURL) {
		return "", false
	}
	key := strings.TrimPrefix(url, s.baseURL)
	return key, key != ""
}

func transientS3(err error) bool {
	if transientDefault(err) || errors.Is(err, context.Canceled) {
		return true
	}
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return true
	case resp.Code == "SlowDown", resp.Code == "RequestTimeout":
		return true
	default:
		return false
	}
}
