// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

// Package models holds the records persisted by the storage gateway and
// returned by the HTTP API.
package models

import "time"

// Player is a rostered team member.
type Player struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	JerseyNumber int       `json:"jerseyNumber"`
	ImageURL     *string   `json:"imageUrl"`
	Stars        int       `json:"stars"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Manager is a member of the coaching or management staff.
type Manager struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	ImageURL *string   `json:"imageUrl"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Trophy is a title won by the team.
type Trophy struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Year      int       `json:"year"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Contact is a contact form submission. Never updated once stored.
type Contact struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Whatsapp    string    `json:"whatsapp"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Admin is a staff account allowed to mutate the roster.
type Admin struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// AdminSummary is the public view of an admin returned on login.
type AdminSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
