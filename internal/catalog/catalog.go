// Package catalog loads the designer tables (classes, archetypes, items,
// skills, waves and buildings) and serves read-only lookups that fall back to
// a default entry instead of failing.
package catalog

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"hold-the-line/server/logging"
	"hold-the-line/server/logging/simulation"
)

//go:embed data/*.yaml
var embedded embed.FS

// Options configures Load.
type Options struct {
	// Dir optionally overrides individual tables with <name>.yaml files.
	Dir       string
	Logger    logrus.FieldLogger
	Publisher logging.Publisher
}

// Catalog holds the decoded tables.
type Catalog struct {
	classes          map[string]ClassEntry
	classOrder       []string
	defaultClass     string
	archetypes       map[string]ArchetypeEntry
	archetypeOrder   []string
	defaultArchetype string
	items            ItemTable
	skills           map[string]SkillEntry
	waves            WaveTable
	buildings        map[string]BuildingEntry

	log logrus.FieldLogger
	pub logging.Publisher

	mu     sync.Mutex
	warned map[string]struct{}
}

// Default loads the embedded tables.
func Default() (*Catalog, error) {
	return Load(Options{})
}

// Load reads, validates and indexes every table.
func Load(opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Catalog{
		log:    logger.WithField("component", "catalog"),
		pub:    opts.Publisher,
		warned: make(map[string]struct{}),
	}

	var override fs.FS
	if opts.Dir != "" {
		override = os.DirFS(opts.Dir)
	}

	var (
		classes    ClassTable
		archetypes ArchetypeTable
		skills     SkillTable
		buildings  BuildingTable
	)
	targets := map[string]any{
		"classes":    &classes,
		"archetypes": &archetypes,
		"items":      &c.items,
		"skills":     &skills,
		"waves":      &c.waves,
		"buildings":  &buildings,
	}
	for _, name := range TableNames() {
		doc, source, err := readTable(override, name)
		if err != nil {
			return nil, err
		}
		if err := validate(name, doc); err != nil {
			return nil, err
		}
		if err := decode(doc, targets[name]); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTable, name, err)
		}
		c.log.WithFields(logrus.Fields{"table": name, "source": source}).Debug("table loaded")
	}

	if err := c.index(classes, archetypes, skills, buildings); err != nil {
		return nil, err
	}
	return c, nil
}

func readTable(override fs.FS, name string) ([]byte, string, error) {
	file := name + ".yaml"
	if override != nil {
		doc, err := fs.ReadFile(override, file)
		if err == nil {
			return doc, file, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("catalog: read %s: %w", file, err)
		}
	}
	doc, err := embedded.ReadFile("data/" + file)
	if err != nil {
		return nil, "", fmt.Errorf("catalog: read embedded %s: %w", file, err)
	}
	return doc, "embedded", nil
}

func decode(doc []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(doc))
	dec.KnownFields(true)
	return dec.Decode(out)
}

func (c *Catalog) index(classes ClassTable, archetypes ArchetypeTable, skills SkillTable, buildings BuildingTable) error {
	c.classes = make(map[string]ClassEntry, len(classes.Classes))
	for _, entry := range classes.Classes {
		if _, dup := c.classes[entry.Name]; dup {
			return fmt.Errorf("%w: classes: duplicate %q", ErrInvalidTable, entry.Name)
		}
		c.classes[entry.Name] = entry
		c.classOrder = append(c.classOrder, entry.Name)
	}
	if _, ok := c.classes[classes.Default]; !ok {
		return fmt.Errorf("%w: classes: default %q is not defined", ErrInvalidTable, classes.Default)
	}
	c.defaultClass = classes.Default

	c.archetypes = make(map[string]ArchetypeEntry, len(archetypes.Archetypes))
	for _, entry := range archetypes.Archetypes {
		if _, dup := c.archetypes[entry.Name]; dup {
			return fmt.Errorf("%w: archetypes: duplicate %q", ErrInvalidTable, entry.Name)
		}
		c.archetypes[entry.Name] = entry
		c.archetypeOrder = append(c.archetypeOrder, entry.Name)
	}
	if _, ok := c.archetypes[archetypes.Default]; !ok {
		return fmt.Errorf("%w: archetypes: default %q is not defined", ErrInvalidTable, archetypes.Default)
	}
	c.defaultArchetype = archetypes.Default

	c.skills = make(map[string]SkillEntry, len(skills.Skills))
	for _, entry := range skills.Skills {
		if _, dup := c.skills[entry.Name]; dup {
			return fmt.Errorf("%w: skills: duplicate %q", ErrInvalidTable, entry.Name)
		}
		c.skills[entry.Name] = entry
	}

	c.buildings = make(map[string]BuildingEntry, len(buildings.Buildings))
	for _, entry := range buildings.Buildings {
		if _, dup := c.buildings[entry.Type]; dup {
			return fmt.Errorf("%w: buildings: duplicate %q", ErrInvalidTable, entry.Type)
		}
		c.buildings[entry.Type] = entry
	}
	if c.waves.Growth < 1 {
		c.waves.Growth = 1
	}
	return nil
}

// fallback logs the first miss of a key and publishes a config fallback event.
func (c *Catalog) fallback(table, key, used string) {
	id := table + "/" + key
	c.mu.Lock()
	_, seen := c.warned[id]
	c.warned[id] = struct{}{}
	c.mu.Unlock()
	if seen {
		return
	}
	c.log.WithFields(logrus.Fields{"table": table, "key": key, "fallback": used}).Warn("unknown configuration key")
	simulation.ConfigFallback(context.Background(), c.pub, 0,
		simulation.ConfigFallbackPayload{Table: table, Key: key, Fallback: used}, nil)
}

// Class returns the named class, or the default class for unknown names.
func (c *Catalog) Class(name string) ClassEntry {
	if entry, ok := c.classes[name]; ok {
		return entry
	}
	c.fallback("classes", name, c.defaultClass)
	return c.classes[c.defaultClass]
}

// HasClass reports whether the class is defined.
func (c *Catalog) HasClass(name string) bool {
	_, ok := c.classes[name]
	return ok
}

// Classes returns the classes in table order.
func (c *Catalog) Classes() []ClassEntry {
	out := make([]ClassEntry, 0, len(c.classOrder))
	for _, name := range c.classOrder {
		out = append(out, c.classes[name])
	}
	return out
}

// Archetype returns the named archetype, or the default archetype for unknown
// names.
func (c *Catalog) Archetype(name string) ArchetypeEntry {
	if entry, ok := c.archetypes[name]; ok {
		return entry
	}
	c.fallback("archetypes", name, c.defaultArchetype)
	return c.archetypes[c.defaultArchetype]
}

// Archetypes returns the archetypes in table order.
func (c *Catalog) Archetypes() []ArchetypeEntry {
	out := make([]ArchetypeEntry, 0, len(c.archetypeOrder))
	for _, name := range c.archetypeOrder {
		out = append(out, c.archetypes[name])
	}
	return out
}

// Skill returns the named skill. Skills have no default entry.
func (c *Catalog) Skill(name string) (SkillEntry, bool) {
	entry, ok := c.skills[name]
	if !ok {
		c.fallback("skills", name, "")
	}
	return entry, ok
}

// SkillsFor returns the skills a class has learned at level, in the order the
// class lists them.
func (c *Catalog) SkillsFor(class string, level int) []SkillEntry {
	var out []SkillEntry
	for _, name := range c.Class(class).Skills {
		entry, ok := c.Skill(name)
		if !ok || entry.Level > level {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Potion returns the market potion entry.
func (c *Catalog) Potion() PotionEntry { return c.items.Potion }

// MarketTax returns the fraction of every purchase credited to the treasury.
func (c *Catalog) MarketTax() float64 { return c.items.MarketTax }

// Upgrade returns the blacksmith tier for slot.
func (c *Catalog) Upgrade(slot string, tier int) (UpgradeEntry, bool) {
	for _, u := range c.items.Upgrades {
		if u.Slot == slot && u.Tier == tier {
			return u, true
		}
	}
	return UpgradeEntry{}, false
}

// Building returns the named building type.
func (c *Catalog) Building(typ string) (BuildingEntry, bool) {
	entry, ok := c.buildings[typ]
	if !ok {
		c.fallback("buildings", typ, "")
	}
	return entry, ok
}

// WaveCount returns the number of scheduled waves before repetition starts.
func (c *Catalog) WaveCount() int { return len(c.waves.Waves) }

// Wave returns the zero-based wave n. Past the table the last wave repeats
// with every count scaled by the growth factor per repetition.
func (c *Catalog) Wave(n int) WaveEntry {
	waves := c.waves.Waves
	if len(waves) == 0 || n < 0 {
		return WaveEntry{}
	}
	if n < len(waves) {
		return waves[n]
	}
	last := waves[len(waves)-1]
	scale := math.Pow(c.waves.Growth, float64(n-len(waves)+1))
	out := WaveEntry{Delay: last.Delay, Interval: last.Interval}
	for _, s := range last.Spawns {
		out.Spawns = append(out.Spawns, WaveSpawn{
			Archetype: s.Archetype,
			Count:     int(math.Ceil(float64(s.Count) * scale)),
		})
	}
	return out
}

// Size returns the number of monsters in a wave.
func (w WaveEntry) Size() int {
	n := 0
	for _, s := range w.Spawns {
		n += s.Count
	}
	return n
}
