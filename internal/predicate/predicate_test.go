package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	apple = ObjectRef{Name: "apple_1", Category: "apple"}
	bowl  = ObjectRef{Name: "bowl_1", Category: "bowl"}
)

// #region kind-tests
func TestKind_Arity(t *testing.T) {
	assert.True(t, Inside.Relative())
	assert.True(t, OnTop.Relative())
	assert.False(t, Open.Relative())
	assert.False(t, InHandOfRobot.Relative())
	assert.False(t, Kind("IsInKitchen").Relative())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("InReachOfRobot")
	require.NoError(t, err)
	assert.Equal(t, InReachOfRobot, k)

	k, err = ParseKind("IsInBathroom")
	require.NoError(t, err)
	assert.True(t, IsRoomKind(k))

	_, err = ParseKind("Levitating")
	assert.Error(t, err)
}

func TestAllKinds_SortedAndComplete(t *testing.T) {
	kinds := AllKinds()
	for i := 1; i < len(kinds); i++ {
		assert.Less(t, string(kinds[i-1]), string(kinds[i]))
	}
	set := KindSet(kinds...)
	for _, k := range RoomKinds() {
		assert.Contains(t, set, k)
	}
	assert.Contains(t, set, Stained)
}

// #endregion kind-tests

// #region record-tests
func TestRecord_ValueDistinguishesFacts(t *testing.T) {
	s := NewRecordSet(Unary(Open, bowl, true), Unary(Open, bowl, false))
	assert.Len(t, s, 2)
}

func TestRecord_Objects(t *testing.T) {
	assert.Equal(t, []ObjectRef{apple}, Unary(InHandOfRobot, apple, true).Objects())
	assert.Equal(t, []ObjectRef{apple, bowl}, Binary(Inside, apple, bowl, true).Objects())
}

func TestRecordSet_MinusAndEqual(t *testing.T) {
	a := NewRecordSet(Unary(Open, bowl, false), Binary(Inside, apple, bowl, false))
	b := NewRecordSet(Unary(Open, bowl, true), Binary(Inside, apple, bowl, false))

	diff := b.Minus(a)
	require.Len(t, diff, 1)
	assert.True(t, diff.Has(Unary(Open, bowl, true)))

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(NewRecordSet(a.Sorted()...)))
}

func TestRecordSet_SortedDeterministic(t *testing.T) {
	s := NewRecordSet(
		Unary(Open, bowl, true),
		Binary(Inside, apple, bowl, true),
		Unary(InHandOfRobot, apple, true),
		Unary(Open, bowl, false),
	)
	got := s.Sorted()
	want := []Record{
		Unary(InHandOfRobot, apple, true),
		Binary(Inside, apple, bowl, true),
		Unary(Open, bowl, false),
		Unary(Open, bowl, true),
	}
	assert.Equal(t, want, got)
	for i := 0; i < 10; i++ {
		assert.Equal(t, got, s.Sorted())
	}
}

// #endregion record-tests

// #region table-tests
func TestDirection_Accepts(t *testing.T) {
	assert.True(t, BothDirections.Accepts(true))
	assert.True(t, BothDirections.Accepts(false))
	assert.True(t, FalseToTrue.Accepts(true))
	assert.False(t, FalseToTrue.Accepts(false))
	assert.False(t, TrueToFalse.Accepts(true))
	assert.True(t, TrueToFalse.Accepts(false))
}

func TestDefaultDirections(t *testing.T) {
	d := DefaultDirections()
	assert.Equal(t, FalseToTrue, d[InHandOfRobot])
	assert.Equal(t, BothDirections, d[Open])
	assert.Equal(t, FalseToTrue, d[Kind("IsInKitchen")])
	_, ok := d[Touching]
	assert.False(t, ok)

	// Callers get their own copy.
	d[Open] = TrueToFalse
	assert.Equal(t, BothDirections, DefaultDirections()[Open])
}

func TestAllowedSubSegments(t *testing.T) {
	sub := AllowedSubSegments()
	assert.ElementsMatch(t, []Kind{OnTop, ToggledOn, Open, Inside}, sub[Burnt])
	assert.ElementsMatch(t, []Kind{Soaked, InSameRoomAsRobot, InReachOfRobot, InHandOfRobot}, sub[Stained])
	assert.Empty(t, sub[InHandOfRobot])
	assert.Empty(t, sub[Touching])
}

// #endregion table-tests

// #region goal-tests
func TestGoalKinds_WalksTree(t *testing.T) {
	goals := []Condition{
		{Children: []Condition{
			{Kind: Inside},
			{Children: []Condition{{Kind: Open}, {Kind: Inside}}},
		}},
		{Kind: Cooked},
	}
	got := GoalKinds(goals)
	assert.Equal(t, KindSet(Inside, Open, Cooked), got)
}

func TestGoalKinds_Empty(t *testing.T) {
	assert.Empty(t, GoalKinds(nil))
}

// #endregion goal-tests

// #region variant-tests
func TestPredicate_VariantMatch(t *testing.T) {
	preds := []Predicate{
		Absolute{Kind: Open, Eval: func() (bool, bool) { return true, true }},
		Relative{Kind: Inside, Eval: func(ObjectRef) (bool, bool) { return false, false }},
	}
	var abs, rel int
	for _, p := range preds {
		switch p.(type) {
		case Absolute:
			abs++
		case Relative:
			rel++
		}
	}
	assert.Equal(t, 1, abs)
	assert.Equal(t, 1, rel)
	assert.Equal(t, Inside, preds[1].PredicateKind())
}

// #endregion variant-tests
