package catalog

// Attributes are the base hero attributes of a class.
type Attributes struct {
	Strength  float64 `json:"strength" yaml:"strength" jsonschema:"minimum=0"`
	Agility   float64 `json:"agility" yaml:"agility" jsonschema:"minimum=0"`
	Intellect float64 `json:"intellect" yaml:"intellect" jsonschema:"minimum=0"`
	Vitality  float64 `json:"vitality" yaml:"vitality" jsonschema:"minimum=0"`
}

// ClassEntry describes a hero class.
type ClassEntry struct {
	Name            string     `json:"name" yaml:"name"`
	Melee           bool       `json:"melee" yaml:"melee"`
	Primary         string     `json:"primary" yaml:"primary" jsonschema:"enum=strength,enum=agility,enum=intellect"`
	Attributes      Attributes `json:"attributes" yaml:"attributes"`
	Speed           float64    `json:"speed" yaml:"speed" jsonschema:"minimum=1"`
	Radius          float64    `json:"radius" yaml:"radius" jsonschema:"minimum=1"`
	RangeMin        float64    `json:"range_min" yaml:"range_min" jsonschema:"minimum=0"`
	RangeMax        float64    `json:"range_max" yaml:"range_max" jsonschema:"minimum=1"`
	Perception      float64    `json:"perception" yaml:"perception" jsonschema:"minimum=1"`
	BeltCapacity    int        `json:"belt_capacity" yaml:"belt_capacity" jsonschema:"minimum=0"`
	HireCost        int        `json:"hire_cost" yaml:"hire_cost" jsonschema:"minimum=0"`
	TrainTime       float64    `json:"train_time" yaml:"train_time" jsonschema:"minimum=0"`
	RespawnTime     float64    `json:"respawn_time" yaml:"respawn_time" jsonschema:"minimum=0"`
	XPMultiplier    float64    `json:"xp_multiplier" yaml:"xp_multiplier" jsonschema:"minimum=0"`
	PatrolAffinity  float64    `json:"patrol_affinity" yaml:"patrol_affinity" jsonschema:"minimum=0,maximum=1"`
	ProjectileSpeed float64    `json:"projectile_speed,omitempty" yaml:"projectile_speed,omitempty" jsonschema:"minimum=0"`
	Skills          []string   `json:"skills" yaml:"skills"`
}

// ClassTable is the classes.yaml document.
type ClassTable struct {
	Default string       `json:"default" yaml:"default"`
	Classes []ClassEntry `json:"classes" yaml:"classes"`
}

// ArchetypeEntry describes a monster archetype.
type ArchetypeEntry struct {
	Name            string  `json:"name" yaml:"name"`
	Behavior        string  `json:"behavior" yaml:"behavior" jsonschema:"enum=swarm,enum=tank,enum=ranged,enum=siege"`
	HP              float64 `json:"hp" yaml:"hp" jsonschema:"minimum=1"`
	Damage          float64 `json:"damage" yaml:"damage" jsonschema:"minimum=0"`
	Speed           float64 `json:"speed" yaml:"speed" jsonschema:"minimum=1"`
	Radius          float64 `json:"radius" yaml:"radius" jsonschema:"minimum=1"`
	AttackRange     float64 `json:"attack_range" yaml:"attack_range" jsonschema:"minimum=0"`
	AttackEvery     float64 `json:"attack_every" yaml:"attack_every" jsonschema:"minimum=0"`
	Reward          int     `json:"reward" yaml:"reward" jsonschema:"minimum=0"`
	Slots           int     `json:"slots" yaml:"slots" jsonschema:"minimum=1"`
	GatherChance    float64 `json:"gather_chance,omitempty" yaml:"gather_chance,omitempty" jsonschema:"minimum=0,maximum=1"`
	SwarmThreshold  int     `json:"swarm_threshold,omitempty" yaml:"swarm_threshold,omitempty" jsonschema:"minimum=0"`
	GatherWait      float64 `json:"gather_wait,omitempty" yaml:"gather_wait,omitempty" jsonschema:"minimum=0"`
	GatherRadius    float64 `json:"gather_radius,omitempty" yaml:"gather_radius,omitempty" jsonschema:"minimum=0"`
	ProjectileSpeed float64 `json:"projectile_speed,omitempty" yaml:"projectile_speed,omitempty" jsonschema:"minimum=0"`
}

// ArchetypeTable is the archetypes.yaml document.
type ArchetypeTable struct {
	Default    string           `json:"default" yaml:"default"`
	Archetypes []ArchetypeEntry `json:"archetypes" yaml:"archetypes"`
}

// PotionEntry prices the market potion.
type PotionEntry struct {
	Cost     int     `json:"cost" yaml:"cost" jsonschema:"minimum=0"`
	Heal     float64 `json:"heal" yaml:"heal" jsonschema:"minimum=0"`
	Cooldown float64 `json:"cooldown" yaml:"cooldown" jsonschema:"minimum=0"`
}

// UpgradeEntry is one blacksmith tier.
type UpgradeEntry struct {
	Slot  string  `json:"slot" yaml:"slot" jsonschema:"enum=weapon,enum=armor"`
	Tier  int     `json:"tier" yaml:"tier" jsonschema:"minimum=1"`
	Cost  int     `json:"cost" yaml:"cost" jsonschema:"minimum=0"`
	Bonus float64 `json:"bonus" yaml:"bonus" jsonschema:"minimum=0"`
}

// ItemTable is the items.yaml document.
type ItemTable struct {
	Potion    PotionEntry    `json:"potion" yaml:"potion"`
	MarketTax float64        `json:"market_tax" yaml:"market_tax" jsonschema:"minimum=0,maximum=1"`
	Upgrades  []UpgradeEntry `json:"upgrades" yaml:"upgrades"`
}

// SkillTrigger gates a skill on the current target.
type SkillTrigger struct {
	MinRange    float64 `json:"min_range,omitempty" yaml:"min_range,omitempty" jsonschema:"minimum=0"`
	MaxRange    float64 `json:"max_range" yaml:"max_range" jsonschema:"minimum=0"`
	TargetBelow float64 `json:"target_below,omitempty" yaml:"target_below,omitempty" jsonschema:"minimum=0,maximum=1"`
}

// SkillEffect parametrizes the class-specific effect.
type SkillEffect struct {
	Kind          string  `json:"kind" yaml:"kind" jsonschema:"enum=stun,enum=knockback,enum=dash,enum=execute"`
	DamageMult    float64 `json:"damage_mult" yaml:"damage_mult" jsonschema:"minimum=0"`
	Stun          float64 `json:"stun,omitempty" yaml:"stun,omitempty" jsonschema:"minimum=0"`
	Vulnerable    float64 `json:"vulnerable,omitempty" yaml:"vulnerable,omitempty" jsonschema:"minimum=0"`
	VulnerableMul float64 `json:"vulnerable_mul,omitempty" yaml:"vulnerable_mul,omitempty" jsonschema:"minimum=0"`
	Knockback     float64 `json:"knockback,omitempty" yaml:"knockback,omitempty" jsonschema:"minimum=0"`
	Dash          float64 `json:"dash,omitempty" yaml:"dash,omitempty" jsonschema:"minimum=0"`
	Retaliate     bool    `json:"retaliate,omitempty" yaml:"retaliate,omitempty"`
	ExecuteBonus  float64 `json:"execute_bonus,omitempty" yaml:"execute_bonus,omitempty" jsonschema:"minimum=0"`
	MoveLock      float64 `json:"move_lock" yaml:"move_lock" jsonschema:"minimum=0"`
}

// SkillEntry describes an active hero skill.
type SkillEntry struct {
	Name     string       `json:"name" yaml:"name"`
	Class    string       `json:"class" yaml:"class"`
	Level    int          `json:"level" yaml:"level" jsonschema:"minimum=1"`
	Cooldown float64      `json:"cooldown" yaml:"cooldown" jsonschema:"minimum=0"`
	Stamina  float64      `json:"stamina" yaml:"stamina" jsonschema:"minimum=0"`
	Trigger  SkillTrigger `json:"trigger" yaml:"trigger"`
	Effect   SkillEffect  `json:"effect" yaml:"effect"`
}

// SkillTable is the skills.yaml document.
type SkillTable struct {
	Skills []SkillEntry `json:"skills" yaml:"skills"`
}

// WaveSpawn is one archetype batch within a wave.
type WaveSpawn struct {
	Archetype string `json:"archetype" yaml:"archetype"`
	Count     int    `json:"count" yaml:"count" jsonschema:"minimum=0"`
}

// WaveEntry schedules one wave relative to the previous one.
type WaveEntry struct {
	Delay    float64     `json:"delay" yaml:"delay" jsonschema:"minimum=0"`
	Interval float64     `json:"interval" yaml:"interval" jsonschema:"minimum=0"`
	Spawns   []WaveSpawn `json:"spawns" yaml:"spawns"`
}

// WaveTable is the waves.yaml document. Past the last entry the final wave
// repeats with counts scaled by Growth per repetition.
type WaveTable struct {
	Growth float64     `json:"growth" yaml:"growth" jsonschema:"minimum=1"`
	Waves  []WaveEntry `json:"waves" yaml:"waves"`
}

// BuildingEntry describes a building type.
type BuildingEntry struct {
	Type        string  `json:"type" yaml:"type" jsonschema:"enum=castle,enum=guild,enum=market,enum=blacksmith,enum=tower,enum=house,enum=farm"`
	Width       float64 `json:"width" yaml:"width" jsonschema:"minimum=1"`
	Height      float64 `json:"height" yaml:"height" jsonschema:"minimum=1"`
	HP          float64 `json:"hp" yaml:"hp" jsonschema:"minimum=1"`
	Cost        int     `json:"cost" yaml:"cost" jsonschema:"minimum=0"`
	BuildCost   float64 `json:"build_cost" yaml:"build_cost" jsonschema:"minimum=0"`
	Capacity    int     `json:"capacity" yaml:"capacity" jsonschema:"minimum=0"`
	TaxRate     float64 `json:"tax_rate,omitempty" yaml:"tax_rate,omitempty" jsonschema:"minimum=0"`
	TowerRange  float64 `json:"tower_range,omitempty" yaml:"tower_range,omitempty" jsonschema:"minimum=0"`
	TowerDamage float64 `json:"tower_damage,omitempty" yaml:"tower_damage,omitempty" jsonschema:"minimum=0"`
	TowerReload float64 `json:"tower_reload,omitempty" yaml:"tower_reload,omitempty" jsonschema:"minimum=0"`
}

// BuildingTable is the buildings.yaml document.
type BuildingTable struct {
	Buildings []BuildingEntry `json:"buildings" yaml:"buildings"`
}
