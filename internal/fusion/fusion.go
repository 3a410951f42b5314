// Package fusion merges the two extraction channels of one item.
package fusion

import "github.com/law-makers/scentcrawl/pkg/models"

// Fuse returns a new record holding every key of static overlaid by every
// key of dynamic; the dynamic value wins on collision. Nil inputs count as
// empty and neither input is modified.
func Fuse(static, dynamic models.Record) models.Record {
	out := make(models.Record, len(static)+len(dynamic))
	for k, v := range static {
		out[k] = v
	}
	for k, v := range dynamic {
		out[k] = v
	}
	return out
}
