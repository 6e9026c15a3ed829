// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package entity

import (
	"time"

	"github.com/tomtom215/roster/internal/database"
	"github.com/tomtom215/roster/internal/imaging"
	"github.com/tomtom215/roster/internal/models"
	"github.com/tomtom215/roster/internal/validation"
)

// Service aliases for the three image-bearing records.
type (
	Players  = ImageService[models.Player, validation.PlayerInput]
	Managers = ImageService[models.Manager, validation.ManagerInput]
	Trophies = ImageService[models.Trophy, validation.TrophyInput]
)

// PlayerTable maps models.Player onto the players table.
var PlayerTable = Table[models.Player, validation.PlayerInput]{
	Name:    "players",
	Noun:    "player",
	Folder:  "players",
	Kind:    imaging.KindPlayer,
	Columns: "id, name, jersey_number, image_url, stars, joined_at",
	OrderBy: "joined_at",
	Scan: func(row database.Scanner) (models.Player, error) {
		var p models.Player
		err := row.Scan(&p.ID, &p.Name, &p.JerseyNumber, &p.ImageURL, &p.Stars, &p.JoinedAt)
		p.JoinedAt = p.JoinedAt.UTC()
		return p, err
	},
	Insert: func(in validation.PlayerInput, imageURL *string, now time.Time) (string, []any) {
		return `INSERT INTO players (name, jersey_number, image_url, stars, joined_at) VALUES ($1, $2, $3, $4, $5)`,
			[]any{in.Name, in.JerseyNumber, imageURL, in.Stars, now}
	},
}

// ManagerTable maps models.Manager onto the managers table.
var ManagerTable = Table[models.Manager, validation.ManagerInput]{
	Name:    "managers",
	Noun:    "manager",
	Folder:  "managers",
	Kind:    imaging.KindManager,
	Columns: "id, name, role, image_url, joined_at",
	OrderBy: "joined_at",
	Scan: func(row database.Scanner) (models.Manager, error) {
		var m models.Manager
		err := row.Scan(&m.ID, &m.Name, &m.Role, &m.ImageURL, &m.JoinedAt)
		m.JoinedAt = m.JoinedAt.UTC()
		return m, err
	},
	Insert: func(in validation.ManagerInput, imageURL *string, now time.Time) (string, []any) {
		return `INSERT INTO managers (name, role, image_url, joined_at) VALUES ($1, $2, $3, $4)`,
			[]any{in.Name, in.Role, imageURL, now}
	},
}

// TrophyTable maps models.Trophy onto the trophies table.
var TrophyTable = Table[models.Trophy, validation.TrophyInput]{
	Name:    "trophies",
	Noun:    "trophy",
	Folder:  "trophies",
	Kind:    imaging.KindTrophy,
	Columns: "id, name, year, image_url, created_at",
	OrderBy: "created_at",
	Scan: func(row database.Scanner) (models.Trophy, error) {
		var tr models.Trophy
		err := row.Scan(&tr.ID, &tr.Name, &tr.Year, &tr.ImageURL, &tr.CreatedAt)
		tr.CreatedAt = tr.CreatedAt.UTC()
		return tr, err
	},
	Insert: func(in validation.TrophyInput, imageURL *string, now time.Time) (string, []any) {
		return `INSERT INTO trophies (name, year, image_url, created_at) VALUES ($1, $2, $3, $4)`,
			[]any{in.Name, in.Year, imageURL, now}
	},
}

// NewPlayers creates the player service.
func NewPlayers(deps Deps) *Players { return NewImageService(deps, PlayerTable) }

// NewManagers creates the manager service.
func NewManagers(deps Deps) *Managers { return NewImageService(deps, ManagerTable) }

// NewTrophies creates the trophy service.
func NewTrophies(deps Deps) *Trophies { return NewImageService(deps, TrophyTable) }
