package segment

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/behavior-harness/internal/predicate"
)

// #region serialized
// Serialized is the JSON form of a segment tree.
type Serialized struct {
	Start        int                `json:"start"`
	End          int                `json:"end"`
	Duration     int                `json:"duration"`
	StateRecords []SerializedRecord `json:"state_records"`
	SubSegments  []Serialized       `json:"sub_segments"`
}

// SerializedRecord is one state change with objects rendered as labels.
type SerializedRecord struct {
	Name    string   `json:"name"`
	Objects []string `json:"objects"`
	Value   bool     `json:"value"`
}

// Serialize converts seg into its JSON form. Objects are labelled by
// instance name or by category. Records are emitted in sorted order.
func Serialize(seg Segment, byInstance bool) Serialized {
	out := Serialized{
		Start:        seg.Start,
		End:          seg.End,
		Duration:     seg.Duration,
		StateRecords: make([]SerializedRecord, 0, len(seg.Records)),
		SubSegments:  make([]Serialized, 0, len(seg.Children)),
	}
	for _, r := range seg.Records.Sorted() {
		objs := r.Objects()
		labels := make([]string, len(objs))
		for i, o := range objs {
			labels[i] = o.Label(byInstance)
		}
		out.StateRecords = append(out.StateRecords, SerializedRecord{
			Name:    string(r.Kind),
			Objects: labels,
			Value:   r.Value,
		})
	}
	for _, child := range seg.Children {
		out.SubSegments = append(out.SubSegments, Serialize(child, byInstance))
	}
	return out
}

// Deserialize parses one serialized segment tree.
func Deserialize(data []byte) (Serialized, error) {
	var s Serialized
	if err := json.Unmarshal(data, &s); err != nil {
		return Serialized{}, fmt.Errorf("parse segment: %w", err)
	}
	return s, nil
}

// Kind returns the record's kind, validated.
func (r SerializedRecord) Kind() (predicate.Kind, error) {
	return predicate.ParseKind(r.Name)
}

// #endregion serialized

// #region file
// File is a segmentation output: one serialized tree per processor name.
type File map[string]Serialized

// FileName is the per-processor output name for a demo.
func FileName(demo, processor string) string {
	return fmt.Sprintf("%s_%s_segm.json", demo, processor)
}

// LoadFile reads a segmentation file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segmentation %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse segmentation %s: %w", path, err)
	}
	return f, nil
}

// WriteFile writes v (a File or a single Serialized tree) as indented JSON.
func WriteFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal segmentation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write segmentation %s: %w", path, err)
	}
	return nil
}

// #endregion file
