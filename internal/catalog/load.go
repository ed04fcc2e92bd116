package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/GitRon/norimberga-sub001/internal/condition"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

//go:embed default.yaml
var defaultCatalog []byte

//go:embed catalog.schema.json
var schemaJSON []byte

const schemaURL = "catalog.schema.json"

// Options tune catalog loading.
type Options struct {
	// Strict turns unknown condition references and non-numeric parameters
	// for numeric conditions into load errors instead of warnings.
	Strict bool
}

// RawValue is a condition parameter kept as written. Scalars of any YAML
// type decode to their literal text.
type RawValue string

// UnmarshalYAML keeps the scalar's source text.
func (r *RawValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: condition value must be a scalar", node.Line)
	}
	*r = RawValue(node.Value)
	return nil
}

// LoadDefault parses the catalog compiled into the binary.
func LoadDefault(opts Options) (*Catalog, error) {
	return Parse(defaultCatalog, opts)
}

// Load reads and parses a catalog file.
func Load(path string, opts Options) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse validates a YAML catalog document against the schema, decodes it,
// checks cross references and resolves every condition reference.
func Parse(raw []byte, opts Options) (*Catalog, error) {
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	sum := sha256.Sum256(raw)
	c.Digest = hex.EncodeToString(sum[:])

	if err := c.index(); err != nil {
		return nil, err
	}
	if err := c.checkReferences(); err != nil {
		return nil, err
	}
	if err := c.resolveConditions(opts); err != nil {
		return nil, err
	}
	return &c, nil
}

func validateSchema(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("load catalog schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	// Round-trip through JSON so the validator sees JSON types.
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert catalog to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(asJSON))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("convert catalog to json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}
	return nil
}

func (c *Catalog) index() error {
	c.tiles = make(map[string]int, len(c.TileTypes))
	for i, t := range c.TileTypes {
		if _, dup := c.tiles[t.Key]; dup {
			return fmt.Errorf("duplicate tile type %q", t.Key)
		}
		c.tiles[t.Key] = i
	}
	c.buildings = make(map[string]int, len(c.Buildings))
	for i, b := range c.Buildings {
		if _, dup := c.buildings[b.Key]; dup {
			return fmt.Errorf("duplicate building %q", b.Key)
		}
		c.buildings[b.Key] = i
	}
	c.milestones = make(map[string]int, len(c.Milestones))
	for i, m := range c.Milestones {
		if _, dup := c.milestones[m.Key]; dup {
			return fmt.Errorf("duplicate milestone %q", m.Key)
		}
		c.milestones[m.Key] = i
	}
	c.edicts = make(map[string]int, len(c.Edicts))
	for i, e := range c.Edicts {
		if _, dup := c.edicts[e.Key]; dup {
			return fmt.Errorf("duplicate edict %q", e.Key)
		}
		c.edicts[e.Key] = i
	}
	c.threads = make(map[string]int, len(c.Threads))
	for i, t := range c.Threads {
		if _, dup := c.threads[t.Key]; dup {
			return fmt.Errorf("duplicate thread type %q", t.Key)
		}
		c.threads[t.Key] = i
	}
	return nil
}

func (c *Catalog) checkReferences() error {
	for _, terrain := range savegame.Terrains {
		if _, ok := c.tiles[terrain]; !ok {
			return fmt.Errorf("tile type %q is required by map generation", terrain)
		}
	}
	for _, b := range c.Buildings {
		for _, t := range b.AllowedTerrains {
			if _, ok := c.tiles[t]; !ok {
				return fmt.Errorf("building %q: unknown terrain %q", b.Key, t)
			}
		}
	}
	for _, m := range c.Milestones {
		if m.Parent == "" {
			continue
		}
		if _, ok := c.milestones[m.Parent]; !ok {
			return fmt.Errorf("milestone %q: unknown parent %q", m.Key, m.Parent)
		}
	}
	if err := c.checkMilestoneCycles(); err != nil {
		return err
	}
	for _, e := range c.Edicts {
		if e.UnlockedBy == "" {
			continue
		}
		if _, ok := c.milestones[e.UnlockedBy]; !ok {
			return fmt.Errorf("edict %q: unknown milestone %q", e.Key, e.UnlockedBy)
		}
	}
	return nil
}

func (c *Catalog) checkMilestoneCycles() error {
	for _, m := range c.Milestones {
		seen := map[string]bool{m.Key: true}
		for p := m.Parent; p != ""; {
			if seen[p] {
				return fmt.Errorf("milestone %q: parent cycle through %q", m.Key, p)
			}
			seen[p] = true
			p = c.Milestones[c.milestones[p]].Parent
		}
	}
	return nil
}

// resolveConditions binds every stored reference to a condition kind. Unknown
// references become KindUnknown and are skipped during evaluation.
func (c *Catalog) resolveConditions(opts Options) error {
	var problems []error
	check := func(owner, ref string, cond condition.Condition) {
		if !cond.Resolved() {
			problems = append(problems, fmt.Errorf("%s: unknown condition %q", owner, ref))
			return
		}
		if err := cond.Kind.Check(cond.Value); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", owner, err))
		}
	}

	for i := range c.Milestones {
		m := &c.Milestones[i]
		for j := range m.Conditions {
			mc := &m.Conditions[j]
			mc.resolved = condition.New(mc.Condition, string(mc.Value), condition.ScopeMilestone)
			check("milestone "+m.Key, mc.Condition, mc.resolved)
		}
	}
	for i := range c.Threads {
		t := &c.Threads[i]
		t.resolved = condition.New(t.Condition, string(t.Value), condition.ScopeThread)
		check("thread "+t.Key, t.Condition, t.resolved)
	}

	if len(problems) == 0 {
		return nil
	}
	if opts.Strict {
		return errors.Join(problems...)
	}
	for _, p := range problems {
		slog.Warn("catalog condition problem", "error", p)
	}
	return nil
}
