package scene

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/behavior-harness/internal/predicate"
)

func kitchenFrame() *Frame {
	return &Frame{
		Frame: 12,
		Objects: []ObjectSpec{
			{Name: "agent_0", Category: "agent", Robot: true, TaskRelevant: true},
			{Name: "apple_1", Category: "apple", TaskRelevant: true, Kinds: []predicate.Kind{predicate.Inside, predicate.InHandOfRobot}},
			{Name: "fridge_1", Category: "fridge", TaskRelevant: true},
			{Name: "table_1", Category: "table"},
		},
		Facts: []Fact{
			{Kind: predicate.InHandOfRobot, Objects: []string{"apple_1"}, Value: true},
			{Kind: predicate.Inside, Objects: []string{"apple_1", "fridge_1"}, Value: false},
			{Kind: predicate.Open, Objects: []string{"fridge_1"}, Value: true},
		},
	}
}

func TestFrame_ObjectPopulations(t *testing.T) {
	f := kitchenFrame()
	assert.Equal(t, 12, f.FrameCount())
	assert.Len(t, f.TaskObjects(), 3)
	assert.Len(t, f.SceneObjects(), 4)

	ref, ok := f.Ref("fridge_1")
	require.True(t, ok)
	assert.Equal(t, "fridge", ref.Category)
	_, ok = f.Ref("oven_1")
	assert.False(t, ok)
}

func TestFrame_StateLookup(t *testing.T) {
	f := kitchenFrame()
	objs := f.SceneObjects()
	apple, fridge := objs[1], objs[2]

	// Kinds restrict applicability.
	_, ok := apple.State(predicate.Open)
	assert.False(t, ok)

	p, ok := apple.State(predicate.InHandOfRobot)
	require.True(t, ok)
	abs, isAbs := p.(predicate.Absolute)
	require.True(t, isAbs)
	v, defined := abs.Eval()
	assert.True(t, defined)
	assert.True(t, v)

	p, ok = apple.State(predicate.Inside)
	require.True(t, ok)
	rel, isRel := p.(predicate.Relative)
	require.True(t, isRel)
	v, defined = rel.Eval(fridge.Ref())
	assert.True(t, defined)
	assert.False(t, v)

	// Missing pair is undefined, not false.
	_, defined = rel.Eval(objs[3].Ref())
	assert.False(t, defined)
}

func TestFrame_JSON(t *testing.T) {
	data, err := json.Marshal(kitchenFrame())
	require.NoError(t, err)

	var decoded Frame
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 12, decoded.Frame)
	assert.Len(t, decoded.Facts, 3)
	assert.True(t, decoded.Objects[0].Robot)
}
