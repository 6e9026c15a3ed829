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
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/tomtom215/roster/internal/config"
)

// cloudinaryURLPattern captures the public id (with format extension) from
// a delivery URL, skipping the optional version segment.
var cloudinaryURLPattern = regexp.MustCompile(`/image/upload/(?:v\d+/)?(.+)$`)

// transientCloudinaryMessages mark API error responses that are worth retrying.
var transientCloudinaryMessages = []string{"rate limit", "timeout", "timed out", "server error", "unavailable"}

// Cloudinary stores images in a Cloudinary account.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinary creates a Cloudinary backend from credentials.
func NewCloudinary(cfg config.CloudinaryConfig) (*Cloudinary, error) {
	if !cfg.Configured() {
		return nil, errors.New("cloudinary credentials are incomplete")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld}, nil
}

// Name implements Store.
func (c *Cloudinary) Name() string { return "cloudinary" }

// publicID drops the extension; Cloudinary appends the delivered format.
func publicID(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

// Put implements Store.
func (c *Cloudinary) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:       publicID(key),
		ResourceType:   "image",
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return "", &Error{Op: "put", Key: key, Transient: transientDefault(err), Err: err}
	}
	if msg := resp.Error.Message; msg != "" {
		return "", &Error{Op: "put", Key: key, Transient: transientMessage(msg), Err: errors.New(msg)}
	}
	if resp.SecureURL == "" {
		return "", &Error{Op: "put", Key: key, Err: errors.New("upload response carried no URL")}
	}
	return resp.SecureURL, nil
}

// Delete implements Store.
func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID(key),
		ResourceType: "image",
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return &Error{Op: "delete", Key: key, Transient: transientDefault(err), Err: err}
	}
	if msg := resp.Error.Message; msg != "" {
		return &Error{Op: "delete", Key: key, Transient: transientMessage(msg), Err: errors.New(msg)}
	}
	switch resp.Result {
	case "ok", "not found":
		return nil
	default:
		return &Error{Op: "delete", Key: key, Err: fmt.Errorf("unexpected destroy result %q", resp.Result)}
	}
}

// KeyFromURL implements Store.
func (c *Cloudinary) KeyFromURL(url string) (string, bool) {
	return cloudinaryKey(url)
}

func cloudinaryKey(url string) (string, bool) {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	m := cloudinaryURLPattern.FindStringSubmatch(url)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

func transientMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range transientCloudinaryMessages {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
