package state

// Feedback is a transient floating label shown by the presentation layer.
type Feedback struct {
	Text  string
	Color string
	Pos   Vec2
}

// Common feedback colors.
const (
	ColorDamage = "#ff5050"
	ColorGold   = "#ffd700"
	ColorHeal   = "#50ff50"
	ColorInfo   = "#ffffff"
	ColorWarn   = "#ffa500"
)

// SpawnRequest asks the surrounding loop to create an entity.
type SpawnRequest struct {
	Kind      Kind
	Pos       Vec2
	Class     HeroClass
	Archetype string
	Home      EntityID
	Gather    bool
	Reason    string
}

// Emitter receives the outward notifications raised by the core.
type Emitter interface {
	Feedback(Feedback)
	Spawn(SpawnRequest)
}

// NopEmitter discards everything.
type NopEmitter struct{}

func (NopEmitter) Feedback(Feedback) {}

func (NopEmitter) Spawn(SpawnRequest) {}

// RecordingEmitter keeps every notification in order.
type RecordingEmitter struct {
	Labels []Feedback
	Spawns []SpawnRequest
}

func (r *RecordingEmitter) Feedback(f Feedback) { r.Labels = append(r.Labels, f) }

func (r *RecordingEmitter) Spawn(s SpawnRequest) { r.Spawns = append(r.Spawns, s) }

// HasLabel reports whether a label with text was recorded.
func (r *RecordingEmitter) HasLabel(text string) bool {
	for _, f := range r.Labels {
		if f.Text == text {
			return true
		}
	}
	return false
}
