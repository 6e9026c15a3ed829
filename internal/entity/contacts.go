// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package entity

import (
	"context"
	"fmt"

	"github.com/tomtom215/roster/internal/database"
	"github.com/tomtom215/roster/internal/logging"
	"github.com/tomtom215/roster/internal/models"
	"github.com/tomtom215/roster/internal/validation"
)

// Contacts stores and lists contact form submissions.
type Contacts struct {
	deps Deps
}

// NewContacts creates the contact service. Only DB, ContactListLimit and
// Now are used from deps.
func NewContacts(deps Deps) *Contacts {
	return &Contacts{deps: deps.withDefaults()}
}

// Create normalizes and validates in, then stores it.
func (c *Contacts) Create(ctx context.Context, in validation.ContactInput) (int64, error) {
	if verr := validation.ValidateContact(&in); verr != nil {
		return 0, verr
	}

	res, err := c.deps.DB.Exec(ctx,
		`INSERT INTO contacts (name, email, whatsapp, submitted_at) VALUES ($1, $2, $3, $4)`,
		in.Name, in.Email, in.Whatsapp, c.deps.timestamp())
	if err != nil {
		return 0, fmt.Errorf("insert contact: %w", err)
	}

	logging.CtxInfo(ctx).
		Int64("id", res.InsertedID).
		Str("email", logging.SanitizeEmail(in.Email)).
		Msg("Contact submission stored")
	return res.InsertedID, nil
}

// List returns up to ContactListLimit submissions, newest first.
func (c *Contacts) List(ctx context.Context) ([]models.Contact, error) {
	out := make([]models.Contact, 0)
	err := c.deps.DB.Query(ctx,
		`SELECT id, name, email, whatsapp, submitted_at FROM contacts ORDER BY submitted_at DESC, id ASC LIMIT $1`,
		func(row database.Scanner) error {
			var ct models.Contact
			if err := row.Scan(&ct.ID, &ct.Name, &ct.Email, &ct.Whatsapp, &ct.SubmittedAt); err != nil {
				return err
			}
			ct.SubmittedAt = ct.SubmittedAt.UTC()
			out = append(out, ct)
			return nil
		}, c.deps.ContactListLimit)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return out, nil
}
