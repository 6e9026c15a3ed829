// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package entity

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/roster/internal/database"
	"github.com/tomtom215/roster/internal/imaging"
	"github.com/tomtom215/roster/internal/objectstore"
	"github.com/tomtom215/roster/internal/validation"
)

var testAllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// fixture wires the services over an in-memory database and object store.
type fixture struct {
	gw    *database.Gateway
	store *objectstore.Memory
	deps  Deps
	clock *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	gw, err := database.OpenMemory(ctx)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })
	if err := gw.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	clock := &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	store := objectstore.NewMemory(objectstore.DefaultMemoryBaseURL)
	return &fixture{
		gw:    gw,
		store: store,
		clock: clock,
		deps: Deps{
			DB:     gw,
			Store:  store,
			Images: imaging.New(imaging.Config{MaxBytes: 5 << 20, Workers: 2}),
			Files:  validation.NewFileValidator(testAllowedTypes, 5<<20),
			Now:    clock.Now,
		},
	}
}

func (f *fixture) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	if _, err := f.gw.QueryOne(context.Background(), "SELECT COUNT(*) FROM "+table,
		func(s database.Scanner) error { return s.Scan(&n) }); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func jpegUpload(t *testing.T, w, h int) *Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8((x + y) / 2), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatal(err)
	}
	return &Upload{Field: "image", Filename: "kai-portrait.jpg", ContentType: "image/jpeg", Data: buf.Bytes()}
}

func kai() validation.PlayerInput {
	return validation.PlayerInput{Name: "Kai Jensen", JerseyNumber: 7, Stars: 5}
}

func TestPlayers_CreateWithImage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewPlayers(f.deps)
	ctx := context.Background()

	id, err := svc.Create(ctx, kai(), jpegUpload(t, 200, 150))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id <= 0 {
		t.Fatalf("Create id = %d", id)
	}

	players, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("List returned %d players, want 1", len(players))
	}
	p := players[0]
	if p.Name != "Kai Jensen" || p.JerseyNumber != 7 || p.Stars != 5 {
		t.Errorf("player = %+v", p)
	}
	if !p.JoinedAt.Equal(f.clock.Now()) {
		t.Errorf("JoinedAt = %v, want %v", p.JoinedAt, f.clock.Now())
	}
	if p.ImageURL == nil {
		t.Fatal("ImageURL is nil")
	}

	key, ok := f.store.KeyFromURL(*p.ImageURL)
	if !ok {
		t.Fatalf("KeyFromURL(%q) failed", *p.ImageURL)
	}
	data, contentType, ok := f.store.Get(key)
	if !ok {
		t.Fatalf("object %q not stored", key)
	}
	if contentType != imaging.ContentType || !imaging.IsWebP(data) {
		t.Errorf("stored object is %s, webp=%v", contentType, imaging.IsWebP(data))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode stored image: %v", err)
	}
	if cfg.Width != 300 || cfg.Height != 400 {
		t.Errorf("stored image is %dx%d, want 300x400", cfg.Width, cfg.Height)
	}
}

func TestPlayers_CreateWithoutImage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewPlayers(f.deps)

	if _, err := svc.Create(context.Background(), kai(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	players, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(players) != 1 || players[0].ImageURL != nil {
		t.Errorf("players = %+v, want one without image", players)
	}
	if f.store.Len() != 0 {
		t.Errorf("store holds %d objects, want 0", f.store.Len())
	}
}

func TestPlayers_CreateRejections(t *testing.T) {
	t.Parallel()

	zip := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0}, 64)...)
	tests := []struct {
		name   string
		in     validation.PlayerInput
		upload func(t *testing.T) *Upload
		field  string
	}{
		{
			name:  "jersey out of range",
			in:    validation.PlayerInput{Name: "Kai Jensen", JerseyNumber: 100, Stars: 5},
			field: "jerseyNumber",
		},
		{
			name: "signature mismatch",
			in:   kai(),
			upload: func(*testing.T) *Upload {
				return &Upload{Field: "image", Filename: "kai.jpg", ContentType: "image/jpeg", Data: zip}
			},
			field: "image",
		},
		{
			name: "type not allowed",
			in:   kai(),
			upload: func(t *testing.T) *Upload {
				u := jpegUpload(t, 20, 20)
				u.ContentType = "application/pdf"
				return u
			},
			field: "image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			svc := NewPlayers(f.deps)

			var upload *Upload
			if tt.upload != nil {
				upload = tt.upload(t)
			}
			_, err := svc.Create(context.Background(), tt.in, upload)

			var verr *validation.RequestValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Create error = %v, want RequestValidationError", err)
			}
			found := false
			for _, field := range verr.Fields() {
				found = found || field == tt.field
			}
			if !found {
				t.Errorf("error fields = %v, want %s", verr.Fields(), tt.field)
			}
			if n := f.countRows(t, "players"); n != 0 {
				t.Errorf("players has %d rows, want 0", n)
			}
			if f.store.Len() != 0 {
				t.Errorf("store holds %d objects, want 0", f.store.Len())
			}
		})
	}
}

func TestPlayers_CreateInsertFailureDeletesObject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewPlayers(f.deps)
	ctx := context.Background()

	if _, err := f.gw.Exec(ctx, `DROP TABLE players`); err != nil {
		t.Fatalf("drop: %v", err)
	}

	if _, err := svc.Create(ctx, kai(), jpegUpload(t, 100, 100)); err == nil {
		t.Fatal("Create succeeded without a players table")
	}
	if f.store.Len() != 0 {
		t.Errorf("store holds %d objects after failed insert, want 0", f.store.Len())
	}
}

// failingStore refuses every upload.
type failingStore struct {
	*objectstore.Memory
}

func (failingStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "", &objectstore.Error{Op: "put", Key: key, Transient: true, Err: errors.New("upstream 503")}
}

func TestPlayers_CreateUploadFailureWritesNoRow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	deps := f.deps
	deps.Store = failingStore{Memory: f.store}
	svc := NewPlayers(deps)

	_, err := svc.Create(context.Background(), kai(), jpegUpload(t, 100, 100))
	if !objectstore.IsTransient(err) {
		t.Fatalf("Create error = %v, want transient object store error", err)
	}
	if n := f.countRows(t, "players"); n != 0 {
		t.Errorf("players has %d rows, want 0", n)
	}
}

func TestPlayers_UpdateImageReplacesObject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewPlayers(f.deps)
	ctx := context.Background()

	id, err := svc.Create(ctx, kai(), jpegUpload(t, 120, 160))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before, _ := svc.List(ctx)
	oldKey, _ := f.store.KeyFromURL(*before[0].ImageURL)

	url, err := svc.UpdateImage(ctx, id, jpegUpload(t, 160, 120))
	if err != nil {
		t.Fatalf("UpdateImage: %v", err)
	}
	if url == *before[0].ImageURL {
		t.Fatal("UpdateImage returned the old URL")
	}
	if _, _, ok := f.store.Get(oldKey); ok {
		t.Error("previous object still stored after replace")
	}
	if f.store.Len() != 1 {
		t.Errorf("store holds %d objects, want 1", f.store.Len())
	}

	after, _ := svc.List(ctx)
	if after[0].ImageURL == nil || *after[0].ImageURL != url {
		t.Errorf("row image = %v, want %s", after[0].ImageURL, url)
	}
}

func TestPlayers_UpdateImageFailureKeepsPrevious(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewPlayers(f.deps)
	ctx := context.Background()

	id, err := svc.Create(ctx, kai(), jpegUpload(t, 120, 160))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before, _ := svc.List(ctx)

	if _, err := f.gw.Exec(ctx, `CREATE TRIGGER players_readonly BEFORE UPDATE ON players
		BEGIN SELECT RAISE(ABORT, 'read only'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := svc.UpdateImage(ctx, id, jpegUpload(t, 160, 120)); err == nil {
		t.Fatal("UpdateImage succeeded against a read-only table")
	}
	if f.store.Len() != 1 {
		t.Errorf("store holds %d objects, want only the original", f.store.Len())
	}
	oldKey, _ := f.store.KeyFromURL(*before[0].ImageURL)
	if _, _, ok := f.store.Get(oldKey); !ok {
		t.Error("original object was deleted")
	}
}

func TestPlayers_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewPlayers(f.deps)
	ctx := context.Background()

	if _, err := svc.UpdateImage(ctx, 999, jpegUpload(t, 50, 50)); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("UpdateImage error = %v, want ErrNotFound", err)
	}
	if f.store.Len() != 0 {
		t.Errorf("UpdateImage of a missing row uploaded %d objects", f.store.Len())
	}
	if err := svc.Delete(ctx, 999); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
}

func TestPlayers_UpdateImageRequiresFile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewPlayers(f.deps)

	_, err := svc.UpdateImage(context.Background(), 1, nil)
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("UpdateImage error = %v, want RequestValidationError", err)
	}
}

func TestPlayers_DeleteRemovesObject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewPlayers(f.deps)
	ctx := context.Background()

	id, err := svc.Create(ctx, kai(), jpegUpload(t, 80, 80))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := f.countRows(t, "players"); n != 0 {
		t.Errorf("players has %d rows, want 0", n)
	}
	if f.store.Len() != 0 {
		t.Errorf("store holds %d objects, want 0", f.store.Len())
	}
}

func TestImageService_ListOrderAndLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	deps := f.deps
	deps.ListLimit = 3
	svc := NewManagers(deps)
	ctx := context.Background()

	names := []string{"Ana Ruiz", "Ben Okafor", "Cleo Martin", "Dev Patel"}
	ids := make(map[string]int64)
	for i, name := range names {
		// The last two share a second.
		if i > 0 && i < 3 {
			f.clock.Advance(time.Minute)
		}
		id, err := svc.Create(ctx, validation.ManagerInput{Name: name, Role: "Head Coach"}, nil)
		if err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
		ids[name] = id
	}

	got, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"Cleo Martin", "Dev Patel", "Ben Okafor"}
	if len(got) != len(want) {
		t.Fatalf("List returned %d managers, want %d", len(got), len(want))
	}
	for i, m := range got {
		if m.Name != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, m.Name, want[i])
		}
	}
	if ids["Cleo Martin"] > ids["Dev Patel"] {
		t.Error("tie should be broken by ascending id")
	}
}

func TestTrophies_CreateUsesLandscapeImage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewTrophies(f.deps)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validation.TrophyInput{Name: "Spring Split Champions", Year: 2025}, jpegUpload(t, 100, 100)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	trophies, err := svc.List(ctx)
	if err != nil || len(trophies) != 1 {
		t.Fatalf("List = %v, %v", trophies, err)
	}
	key, _ := f.store.KeyFromURL(*trophies[0].ImageURL)
	data, _, _ := f.store.Get(key)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 400 || cfg.Height != 300 {
		t.Errorf("trophy image is %dx%d, want 400x300", cfg.Width, cfg.Height)
	}
	if trophies[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}
