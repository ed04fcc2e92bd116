package engine

import (
	"context"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// TreeNode is one milestone with its state for a savegame, and its subtree.
type TreeNode struct {
	Milestone   catalog.Milestone `json:"milestone"`
	IsCompleted bool              `json:"is_completed"`
	IsLocked    bool              `json:"is_locked"`
	IsAvailable bool              `json:"is_available"`
	Conditions  []ConditionInfo   `json:"conditions"`
	Edicts      []catalog.Edict   `json:"edicts"`
	Children    []TreeNode        `json:"children"`
}

// ConditionInfo is the display form of a milestone condition.
type ConditionInfo struct {
	Condition string `json:"condition"`
	Label     string `json:"label"`
	Value     string `json:"value"`
}

// MilestoneTree composes the catalog's milestone forest with a savegame's
// completion state for display.
type MilestoneTree struct {
	store Store
	cat   *catalog.Catalog
	sg    *savegame.Savegame
}

// NewMilestoneTree creates a tree builder for sg.
func NewMilestoneTree(store Store, cat *catalog.Catalog, sg *savegame.Savegame) *MilestoneTree {
	return &MilestoneTree{store: store, cat: cat, sg: sg}
}

// Process returns the root nodes. The shape mirrors the milestone parent
// links exactly. Building the tree never fails on catalog problems: a
// condition that cannot be labelled shows its raw reference.
func (t *MilestoneTree) Process(ctx context.Context) ([]TreeNode, error) {
	completed, err := CompletedMilestones(ctx, t.store, t.sg.ID)
	if err != nil {
		return nil, err
	}
	return t.children("", completed), nil
}

func (t *MilestoneTree) children(parent string, completed map[string]bool) []TreeNode {
	ms := t.cat.Children(parent)
	nodes := make([]TreeNode, 0, len(ms))
	for _, m := range ms {
		isCompleted := completed[m.Key]
		isLocked := m.Parent != "" && !completed[m.Parent]

		conds := make([]ConditionInfo, 0, len(m.Conditions))
		for _, mc := range m.Conditions {
			conds = append(conds, ConditionInfo{
				Condition: mc.Condition,
				Label:     mc.Resolved().Label(),
				Value:     string(mc.Value),
			})
		}

		nodes = append(nodes, TreeNode{
			Milestone:   m,
			IsCompleted: isCompleted,
			IsLocked:    isLocked,
			IsAvailable: !isLocked && !isCompleted,
			Conditions:  conds,
			Edicts:      t.cat.EdictsUnlockedBy(m.Key),
			Children:    t.children(m.Key, completed),
		})
	}
	return nodes
}
