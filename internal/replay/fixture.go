package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/primitive"
	"github.com/danielpatrickdp/behavior-harness/internal/scene"
)

// #region fixture-types

// Fixture is a recorded demo: its metadata and the per-step scene states the
// simulator produced, plus the expected derivation results.
type Fixture struct {
	Description      string          `json:"description"`
	Metadata         Metadata        `json:"metadata"`
	Frames           []scene.Frame   `json:"frames"`
	Physics          *FixturePhysics `json:"physics,omitempty"`
	ExpectedSegments map[string]int  `json:"expected_segments,omitempty"`
	ExpectedPlan     primitive.Plan  `json:"expected_plan"`
}

// FixturePhysics holds both physics traces for determinism checks.
type FixturePhysics struct {
	Original PhysicsData `json:"original"`
	Replayed PhysicsData `json:"replayed"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Frames) == 0 {
		return nil, fmt.Errorf("fixture %s has no frames", path)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// RecordFixture steps s to the end of its log and captures every frame and
// the physics traces. Expectations are left empty.
func RecordFixture(ctx context.Context, s Session, description string) (*Fixture, error) {
	f := &Fixture{Description: description, Metadata: s.Metadata()}
	for s.HasMore() {
		frame, err := s.Step(ctx)
		if err != nil {
			if _, cerr := s.Close(ctx); cerr != nil {
				logging.Warnf(ctx, "close session after step error: %v", cerr)
			}
			return nil, fmt.Errorf("step demo: %w", err)
		}
		f.Frames = append(f.Frames, *frame)
	}
	if len(f.Frames) == 0 {
		if cur := s.Current(); cur != nil {
			f.Frames = append(f.Frames, *cur)
		}
	}
	physics, err := s.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	if physics.Original != nil && physics.Replayed != nil {
		f.Physics = &FixturePhysics{Original: physics.Original, Replayed: physics.Replayed}
	}
	return f, nil
}

// #endregion fixture-loader

// #region fixture-session

// FixtureSession replays a fixture's frames without a simulator.
type FixtureSession struct {
	fixture *Fixture
	next    int
	closed  bool
}

// NewFixtureSession opens f for replay.
func NewFixtureSession(f *Fixture) *FixtureSession {
	return &FixtureSession{fixture: f}
}

func (s *FixtureSession) Metadata() Metadata { return s.fixture.Metadata }

func (s *FixtureSession) TotalFrames() int { return len(s.fixture.Frames) }

func (s *FixtureSession) Current() *scene.Frame {
	if s.next == 0 {
		return &s.fixture.Frames[0]
	}
	return &s.fixture.Frames[s.next-1]
}

func (s *FixtureSession) HasMore() bool {
	return !s.closed && s.next < len(s.fixture.Frames)
}

func (s *FixtureSession) Step(context.Context) (*scene.Frame, error) {
	if s.closed {
		return nil, fmt.Errorf("session closed")
	}
	if s.next >= len(s.fixture.Frames) {
		return nil, fmt.Errorf("no frames left after %d", len(s.fixture.Frames))
	}
	f := &s.fixture.Frames[s.next]
	s.next++
	return f, nil
}

func (s *FixtureSession) Close(context.Context) (PhysicsPair, error) {
	s.closed = true
	if s.fixture.Physics == nil {
		return PhysicsPair{}, nil
	}
	return PhysicsPair{Original: s.fixture.Physics.Original, Replayed: s.fixture.Physics.Replayed}, nil
}

// OpenFixture is an Opener over fixture files.
func OpenFixture(_ context.Context, path string) (Session, error) {
	f, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	return NewFixtureSession(f), nil
}

// #endregion fixture-session
