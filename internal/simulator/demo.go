package simulator

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/behavior-harness/internal/config"
	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/replay"
	"github.com/danielpatrickdp/behavior-harness/internal/scene"
)

// #region messages
type pathRequest struct {
	Path string `json:"path"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type openDemoRequest struct {
	Path       string         `json:"path"`
	EnvConfig  map[string]any `json:"env_config"`
	SaveReplay bool           `json:"save_replay"`
	Metrics    []string       `json:"metrics,omitempty"`
}

type openDemoResponse struct {
	SessionID   string      `json:"session_id"`
	TotalFrames int         `json:"total_frames"`
	Frame       scene.Frame `json:"frame"`
	HasMore     bool        `json:"has_more"`
}

type stepDemoResponse struct {
	Frame   scene.Frame `json:"frame"`
	HasMore bool        `json:"has_more"`
}

type closeDemoResponse struct {
	Original replay.PhysicsData `json:"original"`
	Replayed replay.PhysicsData `json:"replayed"`
}

// #endregion messages

// DemoMetadata reads the header of the demo log at path.
func (c *Client) DemoMetadata(ctx context.Context, path string) (replay.Metadata, error) {
	var meta replay.Metadata
	if err := c.call(ctx, MethodDemoMetadata, pathRequest{Path: path}, &meta); err != nil {
		return replay.Metadata{}, err
	}
	return meta, nil
}

// #region demo-session
// OpenOptions configure how demos are loaded into the simulator.
type OpenOptions struct {
	EnvConfig   config.EnvConfig
	ImageWidth  int
	ImageHeight int
	// SaveReplay asks the simulator to log the replay for determinism checks.
	SaveReplay bool
	// Metrics are computed by the simulator while the demo is stepped and
	// read back with DemoSession.Metrics.
	Metrics []string
}

// DemoSession is a demo being replayed by the simulator. It implements
// replay.Session.
type DemoSession struct {
	client  *Client
	id      string
	meta    replay.Metadata
	total   int
	current *scene.Frame
	hasMore bool
}

// OpenDemo loads the demo at path with the environment config overlaid by
// the demo's own metadata.
func (c *Client) OpenDemo(ctx context.Context, path string, opts OpenOptions) (*DemoSession, error) {
	meta, err := c.DemoMetadata(ctx, path)
	if err != nil {
		return nil, err
	}
	cfg := opts.EnvConfig.Overlay(config.DemoOverlay{
		Task:        meta.Activity,
		TaskID:      meta.ActivityID,
		SceneID:     meta.SceneID,
		InstanceID:  meta.Instance(),
		URDFFile:    meta.URDF(),
		ImageWidth:  opts.ImageWidth,
		ImageHeight: opts.ImageHeight,
	})
	logging.Debugf(ctx, "environment config for %s:\n%s", path, cfg)

	var resp openDemoResponse
	if err := c.call(ctx, MethodOpenDemo, openDemoRequest{Path: path, EnvConfig: cfg, SaveReplay: opts.SaveReplay, Metrics: opts.Metrics}, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("open demo %s: empty session id", path)
	}
	frame := resp.Frame
	return &DemoSession{
		client:  c,
		id:      resp.SessionID,
		meta:    meta,
		total:   resp.TotalFrames,
		current: &frame,
		hasMore: resp.HasMore,
	}, nil
}

// Opener adapts OpenDemo to replay.Opener.
func (c *Client) Opener(opts OpenOptions) replay.Opener {
	return func(ctx context.Context, path string) (replay.Session, error) {
		return c.OpenDemo(ctx, path, opts)
	}
}

func (s *DemoSession) Metadata() replay.Metadata { return s.meta }

func (s *DemoSession) TotalFrames() int { return s.total }

func (s *DemoSession) Current() *scene.Frame { return s.current }

func (s *DemoSession) HasMore() bool { return s.hasMore }

func (s *DemoSession) Step(ctx context.Context) (*scene.Frame, error) {
	if !s.hasMore {
		return nil, fmt.Errorf("demo session %s has no frames left", s.id)
	}
	var resp stepDemoResponse
	if err := s.client.call(ctx, MethodStepDemo, sessionRequest{SessionID: s.id}, &resp); err != nil {
		return nil, err
	}
	frame := resp.Frame
	s.current = &frame
	s.hasMore = resp.HasMore
	return s.current, nil
}

// Metrics returns the results of the metrics requested at open time. It must
// be called before Close.
func (s *DemoSession) Metrics(ctx context.Context) (map[string]any, error) {
	var resp metricsResponse
	if err := s.client.call(ctx, MethodDemoMetrics, sessionRequest{SessionID: s.id}, &resp); err != nil {
		return nil, err
	}
	return resp.Metrics, nil
}

func (s *DemoSession) Close(ctx context.Context) (replay.PhysicsPair, error) {
	var resp closeDemoResponse
	if err := s.client.call(ctx, MethodCloseDemo, sessionRequest{SessionID: s.id}, &resp); err != nil {
		return replay.PhysicsPair{}, err
	}
	s.hasMore = false
	return replay.PhysicsPair{Original: resp.Original, Replayed: resp.Replayed}, nil
}

// #endregion demo-session
