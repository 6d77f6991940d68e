package predicate

// #region direction
// Direction restricts which transitions of a kind count as a state change.
type Direction int

const (
	BothDirections Direction = iota + 1
	FalseToTrue
	TrueToFalse
)

// Accepts reports whether a record holding value passes the direction filter.
func (d Direction) Accepts(value bool) bool {
	switch d {
	case FalseToTrue:
		return value
	case TrueToFalse:
		return !value
	default:
		return true
	}
}

func (d Direction) String() string {
	switch d {
	case BothDirections:
		return "BOTH_DIRECTIONS"
	case FalseToTrue:
		return "FALSE_TO_TRUE"
	case TrueToFalse:
		return "TRUE_TO_FALSE"
	default:
		return "UNKNOWN"
	}
}

// #endregion direction

// #region directions-table
// DefaultDirections returns a fresh copy of the per-kind direction table.
func DefaultDirections() map[Kind]Direction {
	d := map[Kind]Direction{
		Burnt:             BothDirections,
		Cooked:            BothDirections,
		Dusty:             BothDirections,
		Frozen:            BothDirections,
		InFOVOfRobot:      FalseToTrue,
		InHandOfRobot:     FalseToTrue,
		InReachOfRobot:    FalseToTrue,
		InSameRoomAsRobot: FalseToTrue,
		Inside:            FalseToTrue,
		NextTo:            FalseToTrue,
		OnTop:             FalseToTrue,
		Open:              BothDirections,
		Sliced:            BothDirections,
		Soaked:            BothDirections,
		Stained:           BothDirections,
		ToggledOn:         BothDirections,
		Under:             FalseToTrue,
	}
	for _, k := range RoomKinds() {
		d[k] = FalseToTrue
	}
	return d
}

// #endregion directions-table

// #region sub-segments-table
// AllowedSubSegments returns a fresh copy of the table mapping a triggering
// kind to the kinds allowed to sub-segment its interval.
func AllowedSubSegments() map[Kind][]Kind {
	robotApproach := []Kind{InSameRoomAsRobot, InReachOfRobot, InHandOfRobot}
	return map[Kind][]Kind{
		Burnt:             {OnTop, ToggledOn, Open, Inside},
		Cooked:            {OnTop, ToggledOn, Open, Inside},
		Dusty:             clone(robotApproach),
		Frozen:            {InReachOfRobot, OnTop, ToggledOn, Open, Inside},
		InFOVOfRobot:      {},
		InHandOfRobot:     {},
		InReachOfRobot:    {},
		InSameRoomAsRobot: {},
		Inside:            {Open, InSameRoomAsRobot, InReachOfRobot, InHandOfRobot},
		NextTo:            clone(robotApproach),
		OnTop:             clone(robotApproach),
		Open:              clone(robotApproach),
		Sliced:            clone(robotApproach),
		Soaked:            {ToggledOn, InSameRoomAsRobot, InReachOfRobot, InHandOfRobot},
		Stained:           {Soaked, InSameRoomAsRobot, InReachOfRobot, InHandOfRobot},
		ToggledOn:         {InSameRoomAsRobot, InReachOfRobot},
		Under:             clone(robotApproach),
	}
}

func clone(kinds []Kind) []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// #endregion sub-segments-table
