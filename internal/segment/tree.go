package segment

import (
	"fmt"
	"strings"
)

// Tree renders seg as an indented outline, one line per segment:
//
//	0-40: Open(door) = true
//	  0-12: InReachOfRobot(door) = true
func Tree(seg Segment, byInstance bool) string {
	var b strings.Builder
	writeTree(&b, seg, byInstance, 0)
	return b.String()
}

func writeTree(b *strings.Builder, seg Segment, byInstance bool, depth int) {
	entries := make([]string, 0, len(seg.Records))
	for _, r := range seg.Records.Sorted() {
		labels := make([]string, 0, 2)
		for _, o := range r.Objects() {
			labels = append(labels, o.Label(byInstance))
		}
		entries = append(entries, fmt.Sprintf("%s(%s) = %t", r.Kind, strings.Join(labels, ", "), r.Value))
	}
	fmt.Fprintf(b, "%s%d-%d:", strings.Repeat("  ", depth), seg.Start, seg.End)
	if len(entries) > 0 {
		b.WriteString(" " + strings.Join(entries, ", "))
	}
	b.WriteByte('\n')
	for _, child := range seg.Children {
		writeTree(b, child, byInstance, depth+1)
	}
}
