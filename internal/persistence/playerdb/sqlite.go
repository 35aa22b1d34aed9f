package playerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"waystones.ai/internal/sim/waystone/model"
	"waystones.ai/internal/sim/waystone/playerdata"
)

// DB stores per-player waystone data, player profiles and the waystone
// registry in one sqlite file.
type DB struct {
	db *sql.DB
}

// Profile is the part of a player's save that lives outside the waystone record.
type Profile struct {
	ID        uuid.UUID
	Name      string
	Dimension string
	Pos       model.Vec3
	Levels    int
	Creative  bool
	MainHand  model.ItemStack
	OffHand   model.ItemStack
	// Rev orders saves of the same player; older revisions never overwrite newer ones.
	Rev       int64
	SavedAt   string
}

// PlayerRow is a summary for listings.
type PlayerRow struct {
	Profile
	Known                        int
	WarpStoneCooldownUntil       int64
	InventoryButtonCooldownUntil int64
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS waystones (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			dimension TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			owner TEXT,
			global INTEGER NOT NULL,
			generated INTEGER NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_waystones_pos ON waystones(dimension, x, y, z);`,
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			dimension TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			levels INTEGER NOT NULL,
			creative INTEGER NOT NULL,
			main_kind TEXT NOT NULL DEFAULT '',
			main_count INTEGER NOT NULL DEFAULT 0,
			off_kind TEXT NOT NULL DEFAULT '',
			off_count INTEGER NOT NULL DEFAULT 0,
			rev INTEGER NOT NULL DEFAULT 0,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS player_cooldowns (
			player_id TEXT PRIMARY KEY,
			warp_stone_until INTEGER NOT NULL,
			inventory_button_until INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS player_waystones (
			player_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			waystone_id TEXT NOT NULL,
			PRIMARY KEY (player_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_player_waystones_waystone ON player_waystones(waystone_id);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error {
	if d == nil {
		return nil
	}
	return d.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// LoadPlayer returns the saved waystone record; ok is false for new players.
func (d *DB) LoadPlayer(ctx context.Context, id uuid.UUID) (data playerdata.Data, ok bool, err error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT warp_stone_until,inventory_button_until FROM player_cooldowns WHERE player_id=?`, id.String())
	switch err := row.Scan(&data.WarpStoneCooldownUntil, &data.InventoryButtonCooldownUntil); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return data, false, fmt.Errorf("load cooldowns %s: %w", id, err)
	default:
		ok = true
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT waystone_id FROM player_waystones WHERE player_id=? ORDER BY seq`, id.String())
	if err != nil {
		return data, false, fmt.Errorf("load known %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return data, false, err
		}
		wid, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		data.Waystones = append(data.Waystones, wid)
		ok = true
	}
	return data, ok, rows.Err()
}

// Save is one player's state at revision Profile.Rev. Data is nil when the
// waystone record has not changed since the last save.
type Save struct {
	Profile Profile
	Data    *playerdata.Data
}

type recordStmts struct {
	upsert, clear, insert *sql.Stmt
}

func prepareRecords(ctx context.Context, tx *sql.Tx) (*recordStmts, error) {
	var (
		s   recordStmts
		err error
	)
	if s.upsert, err = tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO player_cooldowns(player_id,warp_stone_until,inventory_button_until) VALUES(?,?,?)`); err != nil {
		return nil, err
	}
	if s.clear, err = tx.PrepareContext(ctx, `DELETE FROM player_waystones WHERE player_id=?`); err != nil {
		s.Close()
		return nil, err
	}
	if s.insert, err = tx.PrepareContext(ctx,
		`INSERT INTO player_waystones(player_id,seq,waystone_id) VALUES(?,?,?)`); err != nil {
		s.Close()
		return nil, err
	}
	return &s, nil
}

func (s *recordStmts) Close() {
	for _, st := range []*sql.Stmt{s.upsert, s.clear, s.insert} {
		if st != nil {
			_ = st.Close()
		}
	}
}

func (s *recordStmts) write(ctx context.Context, id uuid.UUID, data playerdata.Data) error {
	pid := id.String()
	if _, err := s.upsert.ExecContext(ctx, pid, data.WarpStoneCooldownUntil, data.InventoryButtonCooldownUntil); err != nil {
		return fmt.Errorf("save cooldowns %s: %w", pid, err)
	}
	if _, err := s.clear.ExecContext(ctx, pid); err != nil {
		return err
	}
	for seq, wid := range data.Waystones {
		if _, err := s.insert.ExecContext(ctx, pid, seq, wid.String()); err != nil {
			return fmt.Errorf("save known %s: %w", pid, err)
		}
	}
	return nil
}

// SavePlayers writes every record in one transaction.
func (d *DB) SavePlayers(ctx context.Context, records map[uuid.UUID]playerdata.Data) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts, err := prepareRecords(ctx, tx)
	if err != nil {
		return err
	}
	defer stmts.Close()
	for id, data := range records {
		if err := stmts.write(ctx, id, data); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) SavePlayer(ctx context.Context, id uuid.UUID, data playerdata.Data) error {
	return d.SavePlayers(ctx, map[uuid.UUID]playerdata.Data{id: data})
}

const upsertProfile = `INSERT INTO players(id,name,dimension,x,y,z,levels,creative,main_kind,main_count,off_kind,off_count,rev,saved_at)
	VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET
		name=excluded.name, dimension=excluded.dimension,
		x=excluded.x, y=excluded.y, z=excluded.z,
		levels=excluded.levels, creative=excluded.creative,
		main_kind=excluded.main_kind, main_count=excluded.main_count,
		off_kind=excluded.off_kind, off_count=excluded.off_count,
		rev=excluded.rev, saved_at=excluded.saved_at
	WHERE excluded.rev > players.rev`

// SaveSessions writes profiles and their records in one transaction. A save
// whose revision is not newer than the stored profile is skipped along with
// its record; the skipped player ids are returned.
func (d *DB) SaveSessions(ctx context.Context, saves []Save) ([]uuid.UUID, error) {
	if len(saves) == 0 {
		return nil, nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	profile, err := tx.PrepareContext(ctx, upsertProfile)
	if err != nil {
		return nil, err
	}
	defer profile.Close()
	stmts, err := prepareRecords(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer stmts.Close()

	savedAt := time.Now().UTC().Format(time.RFC3339Nano)
	var stale []uuid.UUID
	for _, s := range saves {
		p := s.Profile
		res, err := profile.ExecContext(ctx,
			p.ID.String(), p.Name, p.Dimension, p.Pos.X, p.Pos.Y, p.Pos.Z, p.Levels, boolInt(p.Creative),
			string(p.MainHand.Kind), p.MainHand.Count, string(p.OffHand.Kind), p.OffHand.Count,
			p.Rev, savedAt)
		if err != nil {
			return nil, fmt.Errorf("save profile %s: %w", p.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			stale = append(stale, p.ID)
			continue
		}
		if s.Data != nil {
			if err := stmts.write(ctx, p.ID, *s.Data); err != nil {
				return nil, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stale, nil
}

// SaveProfile writes p unless the stored profile has the same or a newer Rev.
func (d *DB) SaveProfile(ctx context.Context, p Profile) error {
	_, err := d.SaveSessions(ctx, []Save{{Profile: p}})
	return err
}

func (d *DB) LoadProfile(ctx context.Context, id uuid.UUID) (Profile, bool, error) {
	p := Profile{ID: id}
	var (
		creative          int
		mainKind, offKind string
	)
	row := d.db.QueryRowContext(ctx,
		`SELECT name,dimension,x,y,z,levels,creative,main_kind,main_count,off_kind,off_count,rev,saved_at FROM players WHERE id=?`, id.String())
	err := row.Scan(&p.Name, &p.Dimension, &p.Pos.X, &p.Pos.Y, &p.Pos.Z, &p.Levels, &creative,
		&mainKind, &p.MainHand.Count, &offKind, &p.OffHand.Count, &p.Rev, &p.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, false, nil
	}
	if err != nil {
		return p, false, err
	}
	p.Creative = creative != 0
	p.MainHand.Kind = model.ItemKind(mainKind)
	p.OffHand.Kind = model.ItemKind(offKind)
	return p, true, nil
}

// ListPlayers returns saved players ordered by name.
func (d *DB) ListPlayers(ctx context.Context, limit int) ([]PlayerRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.dimension, p.x, p.y, p.z, p.levels, p.creative, p.saved_at,
			COALESCE(c.warp_stone_until, 0), COALESCE(c.inventory_button_until, 0),
			(SELECT COUNT(*) FROM player_waystones w WHERE w.player_id = p.id)
		FROM players p
		LEFT JOIN player_cooldowns c ON c.player_id = p.id
		ORDER BY p.name, p.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PlayerRow
	for rows.Next() {
		var (
			r        PlayerRow
			id       string
			creative int
		)
		if err := rows.Scan(&id, &r.Name, &r.Dimension, &r.Pos.X, &r.Pos.Y, &r.Pos.Z, &r.Levels, &creative, &r.SavedAt,
			&r.WarpStoneCooldownUntil, &r.InventoryButtonCooldownUntil, &r.Known); err != nil {
			return nil, err
		}
		r.ID, _ = uuid.Parse(id)
		r.Creative = creative != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SaveWaystone(ctx context.Context, w *model.Waystone) error {
	var owner any
	if w.Owner != uuid.Nil {
		owner = w.Owner.String()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO waystones(id,name,dimension,x,y,z,owner,global,generated) VALUES(?,?,?,?,?,?,?,?,?)`,
		w.ID.String(), w.Name, w.Dimension, w.Pos.X, w.Pos.Y, w.Pos.Z, owner, boolInt(w.Global), boolInt(w.Generated))
	return err
}

// DeleteWaystone removes the waystone and every player's knowledge of it.
func (d *DB) DeleteWaystone(ctx context.Context, id uuid.UUID) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM waystones WHERE id=?`, id.String()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM player_waystones WHERE waystone_id=?`, id.String()); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadWaystones returns every saved waystone, all marked valid.
func (d *DB) LoadWaystones(ctx context.Context) ([]*model.Waystone, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id,name,dimension,x,y,z,COALESCE(owner,''),global,generated FROM waystones ORDER BY dimension,name,id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Waystone
	for rows.Next() {
		var (
			id, owner         string
			global, generated int
			w                 model.Waystone
		)
		if err := rows.Scan(&id, &w.Name, &w.Dimension, &w.Pos.X, &w.Pos.Y, &w.Pos.Z, &owner, &global, &generated); err != nil {
			return nil, err
		}
		wid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("waystone id %q: %w", id, err)
		}
		w.ID = wid
		if owner != "" {
			w.Owner, _ = uuid.Parse(owner)
		}
		w.Global = global != 0
		w.Generated = generated != 0
		w.Valid = true
		out = append(out, &w)
	}
	return out, rows.Err()
}
