package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// MilestoneLogs returns completed milestones in completion order.
func (db *DB) MilestoneLogs(ctx context.Context, savegameID int64) ([]savegame.MilestoneLog, error) {
	var logs []savegame.MilestoneLog
	err := db.conn.SelectContext(ctx, &logs, db.conn.Rebind(`SELECT id, savegame_id, milestone, accomplished_at
		FROM milestone_logs WHERE savegame_id = ? ORDER BY id`), savegameID)
	return logs, err
}

// InsertMilestoneLog appends a completion and sets its id.
func (db *DB) InsertMilestoneLog(ctx context.Context, log *savegame.MilestoneLog) error {
	err := db.conn.GetContext(ctx, &log.ID, db.conn.Rebind(`INSERT INTO milestone_logs
		(savegame_id, milestone, accomplished_at) VALUES (?, ?, ?) RETURNING id`),
		log.SavegameID, log.Milestone, log.AccomplishedAt)
	if err != nil {
		return fmt.Errorf("insert milestone log: %w", err)
	}
	return nil
}

// EdictLogs returns activations newest first.
func (db *DB) EdictLogs(ctx context.Context, savegameID int64) ([]savegame.EdictLog, error) {
	var logs []savegame.EdictLog
	err := db.conn.SelectContext(ctx, &logs, db.conn.Rebind(`SELECT id, savegame_id, edict, activated_at_year
		FROM edict_logs WHERE savegame_id = ? ORDER BY activated_at_year DESC, id DESC`), savegameID)
	return logs, err
}

// ApplyActivation writes the savegame and appends the edict log in one
// transaction.
func (db *DB) ApplyActivation(ctx context.Context, sg *savegame.Savegame, log *savegame.EdictLog) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, updateSavegameQuery(tx), updateSavegameArgs(sg)...)
		if err != nil {
			return fmt.Errorf("update savegame %d: %w", sg.ID, err)
		}
		if err := mustAffect(res); err != nil {
			return err
		}

		err = tx.GetContext(ctx, &log.ID, tx.Rebind(`INSERT INTO edict_logs
			(savegame_id, edict, activated_at_year) VALUES (?, ?, ?) RETURNING id`),
			log.SavegameID, log.Edict, log.ActivatedAtYear)
		if err != nil {
			return fmt.Errorf("insert edict log: %w", err)
		}
		return nil
	})
}

// ActiveThreads returns the savegame's current threats.
func (db *DB) ActiveThreads(ctx context.Context, savegameID int64) ([]savegame.ActiveThread, error) {
	var threads []savegame.ActiveThread
	err := db.conn.SelectContext(ctx, &threads, db.conn.Rebind(`SELECT id, savegame_id, thread_type, activated_at, intensity
		FROM active_threads WHERE savegame_id = ? ORDER BY id`), savegameID)
	return threads, err
}

// SaveActiveThread inserts t when its id is zero, otherwise updates only its
// intensity.
func (db *DB) SaveActiveThread(ctx context.Context, t *savegame.ActiveThread) error {
	if t.ID == 0 {
		err := db.conn.GetContext(ctx, &t.ID, db.conn.Rebind(`INSERT INTO active_threads
			(savegame_id, thread_type, activated_at, intensity) VALUES (?, ?, ?, ?) RETURNING id`),
			t.SavegameID, t.ThreadType, t.ActivatedAt, t.Intensity)
		if err != nil {
			return fmt.Errorf("insert thread %q: %w", t.ThreadType, err)
		}
		return nil
	}

	res, err := db.conn.ExecContext(ctx,
		db.conn.Rebind("UPDATE active_threads SET intensity = ? WHERE id = ?"), t.Intensity, t.ID)
	if err != nil {
		return fmt.Errorf("update thread %q: %w", t.ThreadType, err)
	}
	return mustAffect(res)
}

// DeleteActiveThread removes the savegame's thread of the given type, if any.
func (db *DB) DeleteActiveThread(ctx context.Context, savegameID int64, threadType string) error {
	_, err := db.conn.ExecContext(ctx,
		db.conn.Rebind("DELETE FROM active_threads WHERE savegame_id = ? AND thread_type = ?"),
		savegameID, threadType)
	return err
}

// InsertEvents appends chronicle entries.
func (db *DB) InsertEvents(ctx context.Context, events []savegame.Event) error {
	if len(events) == 0 {
		return nil
	}
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, e := range events {
			_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO events
				(savegame_id, year, category, description) VALUES (?, ?, ?, ?)`),
				e.SavegameID, e.Year, e.Category, e.Description)
			if err != nil {
				return fmt.Errorf("insert event: %w", err)
			}
		}
		return nil
	})
}

// RecentEvents returns the latest chronicle entries, newest first.
func (db *DB) RecentEvents(ctx context.Context, savegameID int64, limit int) ([]savegame.Event, error) {
	var events []savegame.Event
	err := db.conn.SelectContext(ctx, &events, db.conn.Rebind(`SELECT id, savegame_id, year, category, description
		FROM events WHERE savegame_id = ? ORDER BY id DESC LIMIT ?`), savegameID, limit)
	return events, err
}
