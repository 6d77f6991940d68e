package predicate

// #region condition
// Condition is a node of a task's goal-condition expression. Leaf predicates
// carry a Kind; connectives (and, or, forall, ...) leave it empty and hold
// children.
type Condition struct {
	Kind     Kind        `json:"kind,omitempty"`
	Children []Condition `json:"children,omitempty"`
}

// GoalKinds walks the goal-condition trees breadth-first and collects every
// predicate kind they reference.
func GoalKinds(goals []Condition) map[Kind]struct{} {
	kinds := make(map[Kind]struct{})
	queue := make([]Condition, 0, len(goals))
	queue = append(queue, goals...)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c.Kind != "" {
			kinds[c.Kind] = struct{}{}
		}
		queue = append(queue, c.Children...)
	}
	return kinds
}

// #endregion condition
