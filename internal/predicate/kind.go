package predicate

import (
	"fmt"
	"sort"
)

// #region kind
// Kind names a boolean predicate the simulator can evaluate on one object
// (absolute) or on an ordered pair of objects (relative).
type Kind string

const (
	Open              Kind = "Open"
	OnTop             Kind = "OnTop"
	Inside            Kind = "Inside"
	InHandOfRobot     Kind = "InHandOfRobot"
	InReachOfRobot    Kind = "InReachOfRobot"
	InFOVOfRobot      Kind = "InFOVOfRobot"
	InSameRoomAsRobot Kind = "InSameRoomAsRobot"
	NextTo            Kind = "NextTo"
	Under             Kind = "Under"
	Touching          Kind = "Touching"
	OnFloor           Kind = "OnFloor"
	Burnt             Kind = "Burnt"
	Cooked            Kind = "Cooked"
	Dusty             Kind = "Dusty"
	Frozen            Kind = "Frozen"
	Sliced            Kind = "Sliced"
	Soaked            Kind = "Soaked"
	Stained           Kind = "Stained"
	ToggledOn         Kind = "ToggledOn"
)

// #endregion kind

// #region room-kinds
var roomTypes = []string{
	"Auditorium", "Balcony", "Bathroom", "Bedroom", "ChildsRoom", "Closet", "Corridor",
	"DiningRoom", "EmptyRoom", "ExerciseRoom", "Garage", "HomeOffice", "Kitchen", "Library",
	"LivingRoom", "Lobby", "PantryRoom", "Playroom", "Staircase", "StorageRoom",
	"TelevisionRoom", "Undefined", "UtilityRoom",
}

// RoomKinds returns the room-presence kinds (IsInKitchen, IsInBedroom, ...),
// one per room type, in a stable order.
func RoomKinds() []Kind {
	kinds := make([]Kind, len(roomTypes))
	for i, rt := range roomTypes {
		kinds[i] = Kind("IsIn" + rt)
	}
	return kinds
}

// IsRoomKind reports whether k is a room-presence kind.
func IsRoomKind(k Kind) bool {
	_, ok := roomKindSet[k]
	return ok
}

var roomKindSet = func() map[Kind]struct{} {
	m := make(map[Kind]struct{}, len(roomTypes))
	for _, k := range RoomKinds() {
		m[k] = struct{}{}
	}
	return m
}()

// #endregion room-kinds

// #region arity
var relativeKinds = map[Kind]struct{}{
	OnTop:    {},
	Inside:   {},
	NextTo:   {},
	Under:    {},
	Touching: {},
	OnFloor:  {},
}

var absoluteKinds = map[Kind]struct{}{
	Open:              {},
	InHandOfRobot:     {},
	InReachOfRobot:    {},
	InFOVOfRobot:      {},
	InSameRoomAsRobot: {},
	Burnt:             {},
	Cooked:            {},
	Dusty:             {},
	Frozen:            {},
	Sliced:            {},
	Soaked:            {},
	Stained:           {},
	ToggledOn:         {},
}

// Relative reports whether k takes two objects.
func (k Kind) Relative() bool {
	_, ok := relativeKinds[k]
	return ok
}

// Known reports whether k belongs to the closed kind set.
func (k Kind) Known() bool {
	if _, ok := relativeKinds[k]; ok {
		return true
	}
	if _, ok := absoluteKinds[k]; ok {
		return true
	}
	return IsRoomKind(k)
}

// #endregion arity

// #region all-kinds
// AllKinds returns every known kind sorted by name.
func AllKinds() []Kind {
	kinds := make([]Kind, 0, len(relativeKinds)+len(absoluteKinds)+len(roomTypes))
	for k := range relativeKinds {
		kinds = append(kinds, k)
	}
	for k := range absoluteKinds {
		kinds = append(kinds, k)
	}
	kinds = append(kinds, RoomKinds()...)
	SortKinds(kinds)
	return kinds
}

// ParseKind validates a kind name.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if !k.Known() {
		return "", fmt.Errorf("unknown predicate kind %q", name)
	}
	return k, nil
}

// SortKinds sorts kinds in place by name.
func SortKinds(kinds []Kind) {
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
}

// KindSet builds a lookup set from a list of kinds.
func KindSet(kinds ...Kind) map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// #endregion all-kinds
