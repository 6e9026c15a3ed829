// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package entity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/roster/internal/database"
	"github.com/tomtom215/roster/internal/imaging"
	"github.com/tomtom215/roster/internal/logging"
	"github.com/tomtom215/roster/internal/objectstore"
	"github.com/tomtom215/roster/internal/validation"
)

// Default list caps.
const (
	DefaultListLimit        = 20
	DefaultContactListLimit = 100
)

// DefaultImageField is the multipart field carrying entity images.
const DefaultImageField = "image"

// Upload is an image file received with a request, held in memory.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Deps are the collaborators shared by the entity services.
type Deps struct {
	DB     *database.Gateway
	Store  objectstore.Store
	Images *imaging.Processor
	Files  *validation.FileValidator

	// ListLimit caps player, manager and trophy lists.
	ListLimit int
	// ContactListLimit caps the contact submission list.
	ContactListLimit int

	// Now supplies row timestamps. Defaults to time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.ListLimit <= 0 {
		d.ListLimit = DefaultListLimit
	}
	if d.ContactListLimit <= 0 {
		d.ContactListLimit = DefaultContactListLimit
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// timestamp returns the current time in UTC at one-second resolution, the
// granularity of the list ordering key.
func (d Deps) timestamp() time.Time {
	return d.Now().UTC().Truncate(time.Second)
}

// Table maps one image-bearing record type onto its table.
type Table[T, In any] struct {
	// Name is the table name.
	Name string
	// Noun names a single record in logs and messages.
	Noun string
	// Folder is the object store folder for the record's images.
	Folder string
	// Kind selects the image target geometry.
	Kind imaging.Kind
	// Columns is the select list understood by Scan.
	Columns string
	// OrderBy is the timestamp column lists are sorted on, newest first.
	OrderBy string
	// Scan reads one row selected with Columns.
	Scan func(database.Scanner) (T, error)
	// Insert builds the insert statement for a validated input.
	Insert func(in In, imageURL *string, now time.Time) (string, []any)
}

// ImageService lists and mutates one kind of image-bearing record.
type ImageService[T, In any] struct {
	deps  Deps
	table Table[T, In]
}

// NewImageService creates a service for table.
func NewImageService[T, In any](deps Deps, table Table[T, In]) *ImageService[T, In] {
	return &ImageService[T, In]{deps: deps.withDefaults(), table: table}
}

// Noun names the record type served.
func (s *ImageService[T, In]) Noun() string { return s.table.Noun }

// List returns up to ListLimit records, newest first. Rows sharing a
// timestamp are ordered by id ascending.
func (s *ImageService[T, In]) List(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC, id ASC LIMIT $1`,
		s.table.Columns, s.table.Name, s.table.OrderBy)

	out := make([]T, 0)
	err := s.deps.DB.Query(ctx, query, func(row database.Scanner) error {
		rec, err := s.table.Scan(row)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	}, s.deps.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", s.table.Noun, err)
	}
	return out, nil
}

// Create validates in, publishes the optional image and inserts the row.
// If the insert fails the uploaded object is deleted before the error is
// returned.
func (s *ImageService[T, In]) Create(ctx context.Context, in In, upload *Upload) (int64, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return 0, verr
	}

	var imageURL *string
	if upload != nil {
		url, err := s.publish(ctx, upload)
		if err != nil {
			return 0, err
		}
		imageURL = &url
	}

	query, args := s.table.Insert(in, imageURL, s.deps.timestamp())
	res, err := s.deps.DB.Exec(ctx, query, args...)
	if err != nil {
		if imageURL != nil {
			s.discard(ctx, *imageURL, "insert failed")
		}
		return 0, fmt.Errorf("insert %s: %w", s.table.Noun, err)
	}

	logging.CtxInfo(ctx).
		Str("entity", s.table.Noun).
		Int64("id", res.InsertedID).
		Bool("has_image", imageURL != nil).
		Msg("Record created")
	return res.InsertedID, nil
}

// UpdateImage replaces the image of record id and returns the new URL.
// The previous object is deleted once the row points at the new one; if
// the row update fails the new object is deleted instead.
func (s *ImageService[T, In]) UpdateImage(ctx context.Context, id int64, upload *Upload) (string, error) {
	if upload == nil {
		return "", validation.NewFieldError(DefaultImageField, "required", "image is required")
	}

	previous, err := s.currentImage(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := s.publish(ctx, upload)
	if err != nil {
		return "", err
	}

	res, err := s.deps.DB.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET image_url = $1 WHERE id = $2`, s.table.Name), url, id)
	if err != nil {
		s.discard(ctx, url, "update failed")
		return "", fmt.Errorf("update %s %d image: %w", s.table.Noun, id, err)
	}
	if res.Affected == 0 {
		// Deleted between the read and the update.
		s.discard(ctx, url, "record vanished")
		return "", fmt.Errorf("%s %d: %w", s.table.Noun, id, database.ErrNotFound)
	}

	if previous != nil {
		s.discard(ctx, *previous, "image replaced")
	}

	logging.CtxInfo(ctx).Str("entity", s.table.Noun).Int64("id", id).Msg("Record image replaced")
	return url, nil
}

// Delete removes record id and then its image object.
func (s *ImageService[T, In]) Delete(ctx context.Context, id int64) error {
	previous, err := s.currentImage(ctx, id)
	if err != nil {
		return err
	}

	res, err := s.deps.DB.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table.Name), id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", s.table.Noun, id, err)
	}
	if res.Affected == 0 {
		return fmt.Errorf("%s %d: %w", s.table.Noun, id, database.ErrNotFound)
	}

	if previous != nil {
		s.discard(ctx, *previous, "record deleted")
	}

	logging.CtxInfo(ctx).Str("entity", s.table.Noun).Int64("id", id).Msg("Record deleted")
	return nil
}

// currentImage reads the image URL of record id. It returns
// database.ErrNotFound when the row does not exist.
func (s *ImageService[T, In]) currentImage(ctx context.Context, id int64) (*string, error) {
	var url *string
	found, err := s.deps.DB.QueryOne(ctx,
		fmt.Sprintf(`SELECT image_url FROM %s WHERE id = $1`, s.table.Name),
		func(row database.Scanner) error { return row.Scan(&url) }, id)
	if err != nil {
		return nil, fmt.Errorf("read %s %d: %w", s.table.Noun, id, err)
	}
	if !found {
		return nil, fmt.Errorf("%s %d: %w", s.table.Noun, id, database.ErrNotFound)
	}
	return url, nil
}

// publish validates, processes and uploads an image, returning its URL.
func (s *ImageService[T, In]) publish(ctx context.Context, upload *Upload) (string, error) {
	field := upload.Field
	if field == "" {
		field = DefaultImageField
	}

	if verr := s.deps.Files.Validate(field, upload.Filename, upload.ContentType, upload.Data); verr != nil {
		return "", verr
	}

	data, err := s.deps.Images.Process(ctx, upload.Data, s.table.Kind)
	switch {
	case errors.Is(err, imaging.ErrInvalidImage), errors.Is(err, imaging.ErrTooLarge):
		logging.CtxDebug(ctx).Err(err).Str("entity", s.table.Noun).Msg("Image rejected by processor")
		return "", validation.NewFieldError(field, "image", fmt.Sprintf("%s could not be processed as an image", field))
	case err != nil:
		return "", fmt.Errorf("process %s image: %w", s.table.Noun, err)
	}

	key := objectstore.NewKey(s.table.Folder, upload.Filename, imaging.Extension, s.deps.Now())
	url, err := s.deps.Store.Put(ctx, key, data, imaging.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload %s image: %w", s.table.Noun, err)
	}
	return url, nil
}

// discard deletes the object behind url. Failures are logged and
// swallowed; the delete runs even if the request has been canceled.
func (s *ImageService[T, In]) discard(ctx context.Context, url, reason string) {
	key, ok := s.deps.Store.KeyFromURL(url)
	if !ok {
		logging.CtxWarn(ctx).
			Str("entity", s.table.Noun).
			Str("url", url).
			Str("reason", reason).
			Msg("Image URL not owned by object store, leaving it in place")
		return
	}

	if err := s.deps.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		logging.CtxWarn(ctx).
			Err(err).
			Str("entity", s.table.Noun).
			Str("key", key).
			Str("reason", reason).
			Msg("Failed to delete image object, it is now orphaned")
		return
	}
	logging.CtxDebug(ctx).Str("key", key).Str("reason", reason).Msg("Image object deleted")
}
