package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spyice/room-generator/internal/export"
)

var ErrLayoutNotFound = errors.New("database: layout not found")

// LayoutSummary is one row of the layout listing.
type LayoutSummary struct {
	ID              int64
	Seed            int64
	SavedAt         time.Time
	RoomCount       int
	ConnectionCount int
}

// SaveLayout stores a snapshot and returns its new id.
func (d *Database) SaveLayout(snap *export.Snapshot) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := d.qb.Insert("layouts",
		"seed", "saved_at", "tile_size_x", "tile_size_y",
		"bounds_x", "bounds_y", "bounds_width", "bounds_height",
		"room_count", "connection_count", "main_path")
	args := []any{
		snap.Seed, snap.SavedAt, snap.TileSize.X, snap.TileSize.Y,
		snap.Bounds.Anchor.X, snap.Bounds.Anchor.Y, snap.Bounds.Width, snap.Bounds.Height,
		len(snap.Rooms), len(snap.Connections), d.dialect.EncodePath(snap.MainPath),
	}

	id, err := d.dialect.InsertID(tx, query, "id", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert layout: %w", err)
	}

	roomQuery := d.qb.Insert("layout_rooms",
		"layout_id", "room_id", "anchor_x", "anchor_y", "width", "height",
		"is_main", "visible", "room_type", "tiles")
	for _, r := range snap.Rooms {
		_, err := tx.Exec(roomQuery,
			id, r.ID, r.Anchor.X, r.Anchor.Y, r.Width, r.Height,
			r.IsMain, r.Visible, r.Type, strings.Join(r.Tiles, "\n"))
		if err != nil {
			return 0, fmt.Errorf("failed to insert room %d: %w", r.ID, err)
		}
	}

	connQuery := d.qb.Insert("layout_connections",
		"layout_id", "position", "room1_id", "room2_id", "kind", "orientation")
	for i, c := range snap.Connections {
		if _, err := tx.Exec(connQuery, id, i, c.Room1, c.Room2, c.Kind, c.Orientation); err != nil {
			return 0, fmt.Errorf("failed to insert connection %d-%d: %w", c.Room1, c.Room2, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// LoadLayout reads a stored layout back into a snapshot.
func (d *Database) LoadLayout(id int64) (*export.Snapshot, error) {
	snap := &export.Snapshot{}
	pathDest, decodePath := d.dialect.PathScanner()

	row := d.db.QueryRow(d.qb.Build(`
		SELECT seed, saved_at, tile_size_x, tile_size_y,
			bounds_x, bounds_y, bounds_width, bounds_height, main_path
		FROM layouts WHERE id = ?
	`), id)
	err := row.Scan(&snap.Seed, &snap.SavedAt, &snap.TileSize.X, &snap.TileSize.Y,
		&snap.Bounds.Anchor.X, &snap.Bounds.Anchor.Y, &snap.Bounds.Width, &snap.Bounds.Height, pathDest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrLayoutNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if snap.MainPath, err = decodePath(); err != nil {
		return nil, fmt.Errorf("layout %d: bad main path: %w", id, err)
	}
	if snap.Rooms, err = d.loadRooms(id); err != nil {
		return nil, err
	}
	if snap.Connections, err = d.loadConnections(id); err != nil {
		return nil, err
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("layout %d: %w", id, err)
	}
	snap.FillWorld()
	return snap, nil
}

func (d *Database) loadRooms(id int64) ([]export.RoomData, error) {
	rows, err := d.db.Query(d.qb.Build(`
		SELECT room_id, anchor_x, anchor_y, width, height, is_main, visible, room_type, tiles
		FROM layout_rooms WHERE layout_id = ? ORDER BY room_id ASC
	`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []export.RoomData{}
	for rows.Next() {
		var r export.RoomData
		var tiles string
		if err := rows.Scan(&r.ID, &r.Anchor.X, &r.Anchor.Y, &r.Width, &r.Height,
			&r.IsMain, &r.Visible, &r.Type, &tiles); err != nil {
			return nil, err
		}
		if tiles != "" {
			r.Tiles = strings.Split(tiles, "\n")
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (d *Database) loadConnections(id int64) ([]export.ConnectionData, error) {
	rows, err := d.db.Query(d.qb.Build(`
		SELECT room1_id, room2_id, kind, orientation
		FROM layout_connections WHERE layout_id = ? ORDER BY position ASC
	`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conns := []export.ConnectionData{}
	for rows.Next() {
		var c export.ConnectionData
		if err := rows.Scan(&c.Room1, &c.Room2, &c.Kind, &c.Orientation); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// ListLayouts returns the most recently stored layouts first. A limit of
// zero or less returns every layout.
func (d *Database) ListLayouts(limit int) ([]LayoutSummary, error) {
	query := `SELECT id, seed, saved_at, room_count, connection_count FROM layouts ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(d.qb.Build(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LayoutSummary
	for rows.Next() {
		var s LayoutSummary
		if err := rows.Scan(&s.ID, &s.Seed, &s.SavedAt, &s.RoomCount, &s.ConnectionCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteLayout removes a layout with its rooms and connections.
func (d *Database) DeleteLayout(id int64) error {
	result, err := d.db.Exec(d.qb.Build(`DELETE FROM layouts WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrLayoutNotFound, id)
	}
	return nil
}
