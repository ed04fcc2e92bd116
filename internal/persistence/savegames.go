package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

const savegameColumns = `id, user_id, city_name, coins, population, unrest,
	current_year, map_size, is_active, is_enclosed`

// Savegame loads one savegame by id.
func (db *DB) Savegame(ctx context.Context, id int64) (*savegame.Savegame, error) {
	var sg savegame.Savegame
	err := db.conn.GetContext(ctx, &sg,
		db.conn.Rebind("SELECT "+savegameColumns+" FROM savegames WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &sg, nil
}

// ActiveSavegame loads the user's active savegame.
func (db *DB) ActiveSavegame(ctx context.Context, userID int64) (*savegame.Savegame, error) {
	var sg savegame.Savegame
	err := db.conn.GetContext(ctx, &sg,
		db.conn.Rebind("SELECT "+savegameColumns+" FROM savegames WHERE user_id = ? AND is_active = ?"),
		userID, true)
	if err != nil {
		return nil, notFound(err)
	}
	return &sg, nil
}

// CreateSavegame inserts sg and its tiles and deactivates the user's other
// savegames. It sets sg.ID and the tiles' savegame id.
func (db *DB) CreateSavegame(ctx context.Context, sg *savegame.Savegame, tiles []savegame.Tile) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind("UPDATE savegames SET is_active = ? WHERE user_id = ?"), false, sg.UserID); err != nil {
			return fmt.Errorf("deactivate savegames: %w", err)
		}

		err := tx.GetContext(ctx, &sg.ID, tx.Rebind(`INSERT INTO savegames
			(user_id, city_name, coins, population, unrest, current_year, map_size, is_active, is_enclosed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			sg.UserID, sg.CityName, sg.Coins, sg.Population, sg.Unrest,
			sg.CurrentYear, sg.MapSize, sg.IsActive, sg.IsEnclosed,
		)
		if err != nil {
			return fmt.Errorf("insert savegame: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO tiles
			(savegame_id, x, y, terrain, building) VALUES (?, ?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range tiles {
			t := &tiles[i]
			t.SavegameID = sg.ID
			if _, err := stmt.ExecContext(ctx, t.SavegameID, t.X, t.Y, t.Terrain, t.Building); err != nil {
				return fmt.Errorf("insert tile %s: %w", t.Coord(), err)
			}
		}
		return nil
	})
}

// UpdateSavegame writes the mutable fields of sg.
func (db *DB) UpdateSavegame(ctx context.Context, sg *savegame.Savegame) error {
	res, err := db.conn.ExecContext(ctx, updateSavegameQuery(db.conn), updateSavegameArgs(sg)...)
	if err != nil {
		return fmt.Errorf("update savegame %d: %w", sg.ID, err)
	}
	return mustAffect(res)
}

func updateSavegameQuery(q sqlx.ExtContext) string {
	return q.Rebind(`UPDATE savegames SET
		city_name = ?, coins = ?, population = ?, unrest = ?, current_year = ?,
		is_active = ?, is_enclosed = ?
		WHERE id = ?`)
}

func updateSavegameArgs(sg *savegame.Savegame) []any {
	return []any{
		sg.CityName, sg.Coins, sg.Population, sg.Unrest, sg.CurrentYear,
		sg.IsActive, sg.IsEnclosed, sg.ID,
	}
}

// Tiles returns the savegame's grid, row by row.
func (db *DB) Tiles(ctx context.Context, savegameID int64) ([]savegame.Tile, error) {
	var tiles []savegame.Tile
	err := db.conn.SelectContext(ctx, &tiles, db.conn.Rebind(`SELECT id, savegame_id, x, y, terrain, building
		FROM tiles WHERE savegame_id = ? ORDER BY y, x`), savegameID)
	if err != nil {
		return nil, err
	}
	return tiles, nil
}

// SaveBuilding writes the tile's building and the savegame in one
// transaction.
func (db *DB) SaveBuilding(ctx context.Context, sg *savegame.Savegame, tile savegame.Tile) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			tx.Rebind("UPDATE tiles SET building = ? WHERE savegame_id = ? AND x = ? AND y = ?"),
			tile.Building, sg.ID, tile.X, tile.Y)
		if err != nil {
			return fmt.Errorf("update tile %s: %w", tile.Coord(), err)
		}
		if err := mustAffect(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, updateSavegameQuery(tx), updateSavegameArgs(sg)...)
		if err != nil {
			return fmt.Errorf("update savegame %d: %w", sg.ID, err)
		}
		return mustAffect(res)
	})
}
