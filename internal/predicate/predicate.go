package predicate

// #region predicate-variant
// Predicate is a closed variant: every value is either Absolute or Relative.
// Consumers match on the concrete type.
type Predicate interface {
	PredicateKind() Kind
	sealed()
}

// Absolute evaluates a kind on its owning object alone. Eval returns
// ok=false when the predicate is undefined for the object.
type Absolute struct {
	Kind Kind
	Eval func() (value bool, ok bool)
}

// Relative evaluates a kind between its owning object and another one. Eval
// returns ok=false when the pair does not satisfy the kind's preconditions.
type Relative struct {
	Kind Kind
	Eval func(other ObjectRef) (value bool, ok bool)
}

func (a Absolute) PredicateKind() Kind { return a.Kind }
func (a Absolute) sealed()             {}

func (r Relative) PredicateKind() Kind { return r.Kind }
func (r Relative) sealed()             {}

// #endregion predicate-variant

// #region object
// Object is a simulated object as seen by the recorder.
type Object interface {
	Ref() ObjectRef
	IsRobot() bool
	// State returns the predicate bound to this object for kind, or false if
	// the kind does not apply to it (e.g. Frozen on a table).
	State(kind Kind) (Predicate, bool)
}

// #endregion object
