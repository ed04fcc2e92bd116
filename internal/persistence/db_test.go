package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/config"
	"github.com/GitRon/norimberga-sub001/internal/engine"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), config.DialectSQLite, filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadDefault(catalog.Options{Strict: true})
	if err != nil {
		t.Fatalf("LoadDefault() error: %v", err)
	}
	return c
}

func createGame(t *testing.T, db *DB, userID int64) *savegame.Savegame {
	t.Helper()
	sg := &savegame.Savegame{
		UserID:      userID,
		CityName:    "Nuremberg",
		Coins:       1000,
		Population:  50,
		CurrentYear: 1050,
		MapSize:     4,
		IsActive:    true,
	}
	tiles := savegame.GenerateMap(0, savegame.DefaultGenConfig(4, 11))
	if err := db.CreateSavegame(context.Background(), sg, tiles); err != nil {
		t.Fatalf("CreateSavegame() error: %v", err)
	}
	return sg
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatal("expected an error for an unknown dialect")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := range 2 {
		db, err := Open(context.Background(), config.DialectSQLite, path)
		if err != nil {
			t.Fatalf("Open() #%d error: %v", i+1, err)
		}
		var n int
		if err := db.conn.Get(&n, "SELECT COUNT(*) FROM schema_migrations"); err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("got %d applied migrations, want 1", n)
		}
		db.Close()
	}
}

func TestSavegameRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := createGame(t, db, 7)
	second := createGame(t, db, 7)
	if first.ID == 0 || second.ID == first.ID {
		t.Fatalf("ids = %d, %d", first.ID, second.ID)
	}

	active, err := db.ActiveSavegame(ctx, 7)
	if err != nil {
		t.Fatalf("ActiveSavegame() error: %v", err)
	}
	if *active != *second {
		t.Fatalf("active = %+v, want %+v", *active, *second)
	}
	old, err := db.Savegame(ctx, first.ID)
	if err != nil || old.IsActive {
		t.Fatalf("first savegame = %+v, %v; want inactive", old, err)
	}

	if _, err := db.Savegame(ctx, 999); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("missing savegame error = %v, want ErrNotFound", err)
	}
	if _, err := db.ActiveSavegame(ctx, 8); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("missing active savegame error = %v, want ErrNotFound", err)
	}

	second.CurrentYear++
	second.Unrest = 30
	second.IsEnclosed = true
	if err := db.UpdateSavegame(ctx, second); err != nil {
		t.Fatalf("UpdateSavegame() error: %v", err)
	}
	got, _ := db.Savegame(ctx, second.ID)
	if *got != *second {
		t.Fatalf("updated = %+v, want %+v", *got, *second)
	}
}

func TestTilesAndBuildings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sg := createGame(t, db, 1)

	tiles, err := db.Tiles(ctx, sg.ID)
	if err != nil {
		t.Fatalf("Tiles() error: %v", err)
	}
	if len(tiles) != 16 {
		t.Fatalf("got %d tiles, want 16", len(tiles))
	}
	if tiles[1].X != 1 || tiles[1].Y != 0 {
		t.Fatalf("tiles not ordered by row: second tile at %s", tiles[1].Coord())
	}

	sg.Coins = 980
	tile := tiles[5]
	tile.Building = "house"
	if err := db.SaveBuilding(ctx, sg, tile); err != nil {
		t.Fatalf("SaveBuilding() error: %v", err)
	}
	tiles, _ = db.Tiles(ctx, sg.ID)
	if tiles[5].Building != "house" {
		t.Fatalf("tile building = %q, want house", tiles[5].Building)
	}
	got, _ := db.Savegame(ctx, sg.ID)
	if got.Coins != 980 {
		t.Fatalf("coins = %d, want 980", got.Coins)
	}

	// A write against a missing tile leaves the savegame alone.
	sg.Coins = 1
	err = db.SaveBuilding(ctx, sg, savegame.Tile{X: 40, Y: 40, Building: "house"})
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("SaveBuilding() off the map error = %v, want ErrNotFound", err)
	}
	got, _ = db.Savegame(ctx, sg.ID)
	if got.Coins != 980 {
		t.Fatalf("coins = %d after failed write, want 980", got.Coins)
	}
}

func TestLogs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sg := createGame(t, db, 1)

	for _, key := range []string{"hamlet", "village"} {
		if err := db.InsertMilestoneLog(ctx, &savegame.MilestoneLog{SavegameID: sg.ID, Milestone: key, AccomplishedAt: 1051}); err != nil {
			t.Fatalf("InsertMilestoneLog(%s) error: %v", key, err)
		}
	}
	if err := db.InsertMilestoneLog(ctx, &savegame.MilestoneLog{SavegameID: sg.ID, Milestone: "hamlet", AccomplishedAt: 1052}); err == nil {
		t.Fatal("duplicate milestone log accepted")
	}
	ms, err := db.MilestoneLogs(ctx, sg.ID)
	if err != nil || len(ms) != 2 || ms[0].Milestone != "hamlet" {
		t.Fatalf("MilestoneLogs() = %+v, %v", ms, err)
	}

	for _, year := range []int{1050, 1053} {
		sg.CurrentYear = year
		entry := &savegame.EdictLog{SavegameID: sg.ID, Edict: "levy", ActivatedAtYear: year}
		if err := db.ApplyActivation(ctx, sg, entry); err != nil {
			t.Fatalf("ApplyActivation() error: %v", err)
		}
		if entry.ID == 0 {
			t.Fatal("edict log id not set")
		}
	}
	edicts, err := db.EdictLogs(ctx, sg.ID)
	if err != nil || len(edicts) != 2 || edicts[0].ActivatedAtYear != 1053 {
		t.Fatalf("EdictLogs() = %+v, %v; want newest first", edicts, err)
	}
}

func TestActiveThreads(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sg := createGame(t, db, 1)

	at := &savegame.ActiveThread{SavegameID: sg.ID, ThreadType: "riots", ActivatedAt: 1050, Intensity: 3}
	if err := db.SaveActiveThread(ctx, at); err != nil {
		t.Fatalf("insert error: %v", err)
	}
	at.Intensity = 9
	at.ActivatedAt = 1999
	if err := db.SaveActiveThread(ctx, at); err != nil {
		t.Fatalf("update error: %v", err)
	}

	threads, err := db.ActiveThreads(ctx, sg.ID)
	if err != nil || len(threads) != 1 {
		t.Fatalf("ActiveThreads() = %+v, %v", threads, err)
	}
	if threads[0].Intensity != 9 || threads[0].ActivatedAt != 1050 {
		t.Fatalf("thread = %+v, want intensity 9 activated 1050", threads[0])
	}

	if err := db.DeleteActiveThread(ctx, sg.ID, "riots"); err != nil {
		t.Fatalf("DeleteActiveThread() error: %v", err)
	}
	threads, _ = db.ActiveThreads(ctx, sg.ID)
	if len(threads) != 0 {
		t.Fatalf("got %d threads after delete, want 0", len(threads))
	}
}

func TestEvents(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sg := createGame(t, db, 1)

	err := db.InsertEvents(ctx, []savegame.Event{
		{SavegameID: sg.ID, Year: 1050, Category: "round", Description: "first"},
		{SavegameID: sg.ID, Year: 1051, Category: "round", Description: "second"},
		{SavegameID: sg.ID, Year: 1052, Category: "edict", Description: "third"},
	})
	if err != nil {
		t.Fatalf("InsertEvents() error: %v", err)
	}
	events, err := db.RecentEvents(ctx, sg.ID, 2)
	if err != nil {
		t.Fatalf("RecentEvents() error: %v", err)
	}
	if len(events) != 2 || events[0].Description != "third" || events[1].Description != "second" {
		t.Fatalf("RecentEvents() = %+v", events)
	}
}

func TestEngineAgainstSQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cat := mustCatalog(t)

	sg, err := engine.NewGame(ctx, db, 3, "Bamberg", engine.NewGameOptions{Coins: 500, Population: 100, MapSize: 6, Seed: 5})
	if err != nil {
		t.Fatalf("NewGame() error: %v", err)
	}
	sg.Unrest = 50
	if err := db.UpdateSavegame(ctx, sg); err != nil {
		t.Fatal(err)
	}

	e, _ := cat.Edict("tax_amnesty")
	res, err := engine.NewEdictActivation(db, cat, sg, e).Process(ctx)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if !res.Success {
		t.Fatalf("activation failed: %s", res.Message)
	}
	stored, _ := db.Savegame(ctx, sg.ID)
	if *stored != *sg {
		t.Fatalf("stored %+v, want %+v", *stored, *sg)
	}

	if _, err := engine.NewRoundService(db, cat, sg).Process(ctx); err != nil {
		t.Fatalf("round error: %v", err)
	}
	done, _ := engine.CompletedMilestones(ctx, db, sg.ID)
	if !done["hamlet"] {
		t.Fatal("hamlet not completed with population above 60")
	}
}
