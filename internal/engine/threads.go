package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// ThreadChecker reconciles a savegame's active threads with the current
// truth of every thread condition in the catalog.
type ThreadChecker struct {
	store Store
	cat   *catalog.Catalog
	sg    *savegame.Savegame
}

// NewThreadChecker creates a checker for sg.
func NewThreadChecker(store Store, cat *catalog.Catalog, sg *savegame.Savegame) *ThreadChecker {
	return &ThreadChecker{store: store, cat: cat, sg: sg}
}

// Process creates threads whose condition newly holds, refreshes the
// intensity of those still holding and deletes those that lapsed. A thread
// keeps the year it first appeared for as long as it stays active. Thread
// types with an unresolved condition are skipped untouched.
func (t *ThreadChecker) Process(ctx context.Context) ([]savegame.ActiveThread, error) {
	st, err := loadState(ctx, t.store, t.cat, t.sg)
	if err != nil {
		return nil, err
	}

	current, err := t.store.ActiveThreads(ctx, t.sg.ID)
	if err != nil {
		return nil, fmt.Errorf("load active threads: %w", err)
	}
	byType := make(map[string]savegame.ActiveThread, len(current))
	for _, at := range current {
		byType[at.ThreadType] = at
	}

	chron := newChronicle(t.sg)
	for _, tt := range t.cat.ThreadsInOrder() {
		c := tt.Resolved()
		if !c.Resolved() {
			slog.Warn("unresolved thread condition", "thread", tt.Key, "condition", tt.Condition)
			continue
		}

		active, err := c.IsActive(st)
		if err != nil {
			return nil, fmt.Errorf("thread %q: %w", tt.Key, err)
		}
		existing, has := byType[tt.Key]

		if !active {
			if has {
				if err := t.store.DeleteActiveThread(ctx, t.sg.ID, tt.Key); err != nil {
					return nil, fmt.Errorf("remove thread %q: %w", tt.Key, err)
				}
				slog.Info("thread lifted", "savegame", t.sg.ID, "thread", tt.Key)
				chron.Emit(CategoryThread, "The threat of %s has passed.", tt.Name)
			}
			continue
		}

		intensity, err := c.Intensity(st)
		if err != nil {
			return nil, fmt.Errorf("thread %q: %w", tt.Key, err)
		}

		if has {
			if existing.Intensity == intensity {
				continue
			}
			existing.Intensity = intensity
			if err := t.store.SaveActiveThread(ctx, &existing); err != nil {
				return nil, fmt.Errorf("update thread %q: %w", tt.Key, err)
			}
			continue
		}

		at := &savegame.ActiveThread{
			SavegameID:  t.sg.ID,
			ThreadType:  tt.Key,
			ActivatedAt: t.sg.CurrentYear,
			Intensity:   intensity,
		}
		if err := t.store.SaveActiveThread(ctx, at); err != nil {
			return nil, fmt.Errorf("create thread %q: %w", tt.Key, err)
		}
		slog.Info("thread appeared", "savegame", t.sg.ID, "thread", tt.Key, "intensity", intensity, "severity", tt.Severity)
		chron.Emit(CategoryThread, "A new threat looms over %s: %s.", t.sg.CityName, tt.Name)
	}

	if err := chron.flush(ctx, t.store); err != nil {
		return nil, err
	}

	threads, err := t.store.ActiveThreads(ctx, t.sg.ID)
	if err != nil {
		return nil, fmt.Errorf("load active threads: %w", err)
	}
	return threads, nil
}

// ActiveThreadView joins an active thread with its catalog definition.
type ActiveThreadView struct {
	savegame.ActiveThread
	Name     string           `json:"name"`
	Severity catalog.Severity `json:"severity"`
}

// DescribeThreads attaches catalog names and severities. Threads whose type
// left the catalog keep their key as name.
func DescribeThreads(cat *catalog.Catalog, threads []savegame.ActiveThread) []ActiveThreadView {
	out := make([]ActiveThreadView, 0, len(threads))
	for _, at := range threads {
		v := ActiveThreadView{ActiveThread: at, Name: at.ThreadType}
		if tt, ok := cat.ThreadType(at.ThreadType); ok {
			v.Name = tt.Name
			v.Severity = tt.Severity
		}
		out = append(out, v)
	}
	return out
}
