package savegame

// MilestoneLog records that a savegame completed a milestone. Rows are
// append-only: a milestone is never un-completed.
type MilestoneLog struct {
	ID             int64  `db:"id" json:"id"`
	SavegameID     int64  `db:"savegame_id" json:"-"`
	Milestone      string `db:"milestone" json:"milestone"`             // Catalog milestone key
	AccomplishedAt int    `db:"accomplished_at" json:"accomplished_at"` // In-game year
}

// EdictLog records one edict activation.
type EdictLog struct {
	ID              int64  `db:"id" json:"id"`
	SavegameID      int64  `db:"savegame_id" json:"-"`
	Edict           string `db:"edict" json:"edict"`                         // Catalog edict key
	ActivatedAtYear int    `db:"activated_at_year" json:"activated_at_year"` // In-game year
}

// ActiveThread is a threat currently holding for a savegame. It is removed
// once its condition lapses.
type ActiveThread struct {
	ID          int64  `db:"id" json:"id"`
	SavegameID  int64  `db:"savegame_id" json:"-"`
	ThreadType  string `db:"thread_type" json:"thread_type"`   // Catalog thread type key
	ActivatedAt int    `db:"activated_at" json:"activated_at"` // Year the threat first appeared
	Intensity   int    `db:"intensity" json:"intensity"`
}

// Event is a chronicle entry shown to the player.
type Event struct {
	ID          int64  `db:"id" json:"id"`
	SavegameID  int64  `db:"savegame_id" json:"-"`
	Year        int    `db:"year" json:"year"`
	Category    string `db:"category" json:"category"` // "milestone", "thread", "edict", "round", "building"
	Description string `db:"description" json:"description"`
}
