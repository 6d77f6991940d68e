package primitive

import (
	"encoding/json"
	"errors"
	"fmt"
)

// #region primitive
// Primitive is an action of the external primitive environment. The values
// are the environment's own action codes.
type Primitive int

const (
	NavigateTo Primitive = iota // reserved by the environment, never derived
	LeftGrasp
	RightGrasp
	LeftPlaceOnTop
	RightPlaceOnTop
	LeftPlaceInside
	RightPlaceInside
	Open
	Close
)

var primitiveNames = map[Primitive]string{
	NavigateTo:       "NAVIGATE_TO",
	LeftGrasp:        "LEFT_GRASP",
	RightGrasp:       "RIGHT_GRASP",
	LeftPlaceOnTop:   "LEFT_PLACE_ONTOP",
	RightPlaceOnTop:  "RIGHT_PLACE_ONTOP",
	LeftPlaceInside:  "LEFT_PLACE_INSIDE",
	RightPlaceInside: "RIGHT_PLACE_INSIDE",
	Open:             "OPEN",
	Close:            "CLOSE",
}

func (p Primitive) String() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Primitive(%d)", int(p))
}

// Valid reports whether p is a known action code.
func (p Primitive) Valid() bool {
	_, ok := primitiveNames[p]
	return ok
}

// #endregion primitive

// #region hand
// Hand is one of the robot's two grippers.
type Hand int

const (
	RightHand Hand = iota
	LeftHand
)

func (h Hand) String() string {
	if h == LeftHand {
		return "left_hand"
	}
	return "right_hand"
}

func grasp(h Hand) Primitive {
	if h == LeftHand {
		return LeftGrasp
	}
	return RightGrasp
}

func placeInside(h Hand) Primitive {
	if h == LeftHand {
		return LeftPlaceInside
	}
	return RightPlaceInside
}

func placeOnTop(h Hand) Primitive {
	if h == LeftHand {
		return LeftPlaceOnTop
	}
	return RightPlaceOnTop
}

// #endregion hand

// #region step
// Step is one plan entry. It marshals as [action_code, "object"].
type Step struct {
	Primitive Primitive
	Object    string
}

// Plan is an ordered list of steps.
type Plan []Step

func (s Step) String() string {
	return fmt.Sprintf("(%s, %s)", s.Primitive, s.Object)
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{int(s.Primitive), s.Object})
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("plan step: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("plan step: want 2 elements, got %d", len(raw))
	}
	var code int
	if err := json.Unmarshal(raw[0], &code); err != nil {
		return fmt.Errorf("plan step primitive: %w", err)
	}
	if !Primitive(code).Valid() {
		return fmt.Errorf("plan step: unknown primitive %d", code)
	}
	var obj string
	if err := json.Unmarshal(raw[1], &obj); err != nil {
		return fmt.Errorf("plan step object: %w", err)
	}
	*s = Step{Primitive: Primitive(code), Object: obj}
	return nil
}

// #endregion step

// #region errors
var (
	// ErrUnsupportedTransition is returned for a state change with no
	// primitive mapping.
	ErrUnsupportedTransition = errors.New("unsupported state change")

	// ErrHandsFull is returned when a grasp is needed while both hands hold
	// objects.
	ErrHandsFull = errors.New("both hands are full")

	// ErrNoFlatSegmentation is returned by LoadFlat when a segmentation file
	// has no flat tree.
	ErrNoFlatSegmentation = errors.New("no flat segmentation")
)

// #endregion errors
