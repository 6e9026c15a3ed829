// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package entity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/roster/internal/validation"
)

func TestContacts_CreateNormalizes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewContacts(f.deps)
	ctx := context.Background()

	id, err := svc.Create(ctx, validation.ContactInput{
		Name:     "  Mia Chen ",
		Email:    "Mia.Chen@Example.COM",
		Whatsapp: "+1 (555) 010-2030",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	contacts, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(contacts) != 1 {
		t.Fatalf("List returned %d contacts, want 1", len(contacts))
	}
	c := contacts[0]
	if c.ID != id || c.Name != "Mia Chen" || c.Email != "mia.chen@example.com" || c.Whatsapp != "+15550102030" {
		t.Errorf("contact = %+v", c)
	}
	if !c.SubmittedAt.Equal(f.clock.Now()) {
		t.Errorf("SubmittedAt = %v, want %v", c.SubmittedAt, f.clock.Now())
	}
}

func TestContacts_CreateInvalid(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewContacts(f.deps)

	_, err := svc.Create(context.Background(), validation.ContactInput{Name: "Mia", Email: "not-an-email", Whatsapp: "12"})
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Create error = %v, want RequestValidationError", err)
	}
	if n := f.countRows(t, "contacts"); n != 0 {
		t.Errorf("contacts has %d rows, want 0", n)
	}
}

func TestContacts_ListNewestFirstAndCapped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	deps := f.deps
	deps.ContactListLimit = 2
	svc := NewContacts(deps)
	ctx := context.Background()

	for _, name := range []string{"First Person", "Second Person", "Third Person"} {
		f.clock.Advance(time.Second)
		if _, err := svc.Create(ctx, validation.ContactInput{
			Name:     name,
			Email:    "fan@example.com",
			Whatsapp: "+4915112345678",
		}); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}

	got, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Third Person" || got[1].Name != "Second Person" {
		t.Errorf("List = %+v, want Third then Second", got)
	}
}
