package action

// Ownership says where the Def behind a Ref lives.
type Ownership uint8

const (
	None Ownership = iota
	// Borrowed points into a library that outlives every entity built from it.
	Borrowed
	// Owned is a private copy held by the entity.
	Owned
)

func (o Ownership) String() string {
	switch o {
	case Borrowed:
		return "borrowed"
	case Owned:
		return "owned"
	default:
		return "none"
	}
}

// Ref is an optional action with explicit ownership. The zero Ref is None.
type Ref struct {
	ownership Ownership
	def       *Def
}

// Borrow references def without copying. The caller guarantees def outlives
// the Ref.
func Borrow(def *Def) Ref {
	if def == nil {
		return Ref{}
	}
	return Ref{ownership: Borrowed, def: def}
}

// Own takes a deep copy of def.
func Own(def *Def) Ref {
	if def == nil {
		return Ref{}
	}
	return Ref{ownership: Owned, def: def.Clone()}
}

func (r Ref) Ownership() Ownership { return r.ownership }
func (r Ref) IsSet() bool          { return r.def != nil }

// Def returns the referenced action, or nil.
func (r Ref) Def() *Def { return r.def }
