package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvConfig is a simulator environment config file. It is passed through to
// the simulator after the demo-specific overlay.
type EnvConfig map[string]any

// LoadEnvConfig reads a YAML environment config.
func LoadEnvConfig(path string) (EnvConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read env config %s: %w", path, err)
	}
	cfg := EnvConfig{}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse env config %s: %w", path, err)
	}
	return cfg, nil
}

// DemoOverlay is the demo-specific part of an environment config.
type DemoOverlay struct {
	Task        string
	TaskID      int
	SceneID     string
	InstanceID  int
	URDFFile    string
	ImageWidth  int
	ImageHeight int
}

// Overlay returns a copy of c with the demo's task and rendering settings
// applied. Online sampling is always disabled for replay.
func (c EnvConfig) Overlay(o DemoOverlay) EnvConfig {
	out := make(EnvConfig, len(c)+8)
	for k, v := range c {
		out[k] = v
	}
	out["task"] = o.Task
	out["task_id"] = o.TaskID
	out["scene_id"] = o.SceneID
	out["instance_id"] = o.InstanceID
	out["urdf_file"] = o.URDFFile
	if o.ImageWidth > 0 && o.ImageHeight > 0 {
		out["image_width"] = o.ImageWidth
		out["image_height"] = o.ImageHeight
	}
	out["online_sampling"] = false
	return out
}

// String returns the config as YAML.
func (c EnvConfig) String() string {
	b, err := yaml.Marshal(map[string]any(c))
	if err != nil {
		return fmt.Sprintf("<invalid env config: %v>", err)
	}
	return string(b)
}
