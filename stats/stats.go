// Package stats folds hero attribute modifiers into totals and derives the
// combat numbers the behaviors read.
package stats

import "sort"

// StatID enumerates the hero attributes.
type StatID uint8

const (
	StatStrength StatID = iota
	StatAgility
	StatIntellect
	StatVitality

	StatCount
)

// DerivedID enumerates combat stats computed from the attribute totals.
type DerivedID uint8

const (
	DerivedMaxHealth DerivedID = iota
	DerivedDamage
	DerivedAttackInterval
	DerivedArmor
	DerivedCritChance
	DerivedMaxStamina
	DerivedSpeedBonus

	DerivedCount
)

// Layer orders modifier groups. Each layer adds its flat bonuses to the
// running total and then scales it.
type Layer uint8

const (
	LayerBase Layer = iota
	LayerLevel
	LayerEquipment

	LayerCount
)

// SourceKind identifies where a modifier comes from.
type SourceKind uint8

const (
	SourceKindUnknown SourceKind = iota
	SourceKindClass
	SourceKindProgression
	SourceKindEquipment
)

// SourceKey names a modifier. Setting a modifier with an existing key
// replaces it.
type SourceKey struct {
	Kind SourceKind
	ID   string
}

func (k SourceKey) less(o SourceKey) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	return k.ID < o.ID
}

// ValueSet holds one value per attribute.
type ValueSet [StatCount]float64

// DerivedSet holds one value per derived stat.
type DerivedSet [DerivedCount]float64

// Modifier adds flat bonuses to the attributes and optionally scales them.
// Zero Scale entries leave the attribute unscaled.
type Modifier struct {
	Layer  Layer
	Source SourceKey
	Add    ValueSet
	Scale  ValueSet
}

// Component owns a hero's modifiers and caches the resolved values. The
// primary attribute drives damage.
type Component struct {
	primary   StatID
	modifiers map[SourceKey]Modifier
	totals    ValueSet
	derived   DerivedSet
	dirty     bool
}

// NewComponent seeds a component with the class base attributes.
func NewComponent(base ValueSet, primary StatID) Component {
	if primary >= StatCount {
		primary = StatStrength
	}
	c := Component{primary: primary}
	c.Set(Modifier{Layer: LayerBase, Source: SourceKey{Kind: SourceKindClass, ID: "base"}, Add: base})
	return c
}

// Set adds or replaces a modifier. Modifiers on unknown layers are ignored.
func (c *Component) Set(m Modifier) {
	if c == nil || m.Layer >= LayerCount {
		return
	}
	if c.modifiers == nil {
		c.modifiers = make(map[SourceKey]Modifier)
	}
	if current, ok := c.modifiers[m.Source]; ok && current == m {
		return
	}
	c.modifiers[m.Source] = m
	c.dirty = true
}

// Remove drops the modifier with key and reports whether one existed.
func (c *Component) Remove(key SourceKey) bool {
	if c == nil {
		return false
	}
	if _, ok := c.modifiers[key]; !ok {
		return false
	}
	delete(c.modifiers, key)
	c.dirty = true
	return true
}

// Dirty reports whether modifiers changed since the last Resolve.
func (c *Component) Dirty() bool {
	return c != nil && c.dirty
}

// Resolve recomputes totals and derived stats when modifiers changed.
// Layers fold in order; within a layer modifiers fold by source key so the
// result does not depend on insertion order.
func (c *Component) Resolve() {
	if c == nil || !c.dirty {
		return
	}
	var byLayer [LayerCount][]Modifier
	for _, m := range c.modifiers {
		byLayer[m.Layer] = append(byLayer[m.Layer], m)
	}

	var total ValueSet
	for _, mods := range byLayer {
		sort.Slice(mods, func(i, j int) bool { return mods[i].Source.less(mods[j].Source) })
		scale := unitScale()
		for _, m := range mods {
			for i := range total {
				total[i] += m.Add[i]
				if m.Scale[i] != 0 {
					scale[i] *= m.Scale[i]
				}
			}
		}
		for i := range total {
			total[i] *= scale[i]
		}
	}

	c.totals = total
	c.derived = computeDerived(total, c.primary)
	c.dirty = false
}

// Total returns the resolved value of an attribute.
func (c *Component) Total(id StatID) float64 {
	if id >= StatCount {
		return 0
	}
	return c.totals[id]
}

// GetDerived returns the resolved value of a derived stat.
func (c *Component) GetDerived(id DerivedID) float64 {
	if id >= DerivedCount {
		return 0
	}
	return c.derived[id]
}

// Primary reports the attribute that scales damage.
func (c *Component) Primary() StatID {
	return c.primary
}

func unitScale() ValueSet {
	var vs ValueSet
	for i := range vs {
		vs[i] = 1
	}
	return vs
}
