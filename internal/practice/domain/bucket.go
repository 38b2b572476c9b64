package domain

import "fmt"

// Bucket is the urgency class a queue entry was filled from.
// The bucket is assigned by the step that produced the entry, never re-derived later.
type Bucket int

const (
	BucketDueToday       Bucket = 1
	BucketRecentlyLapsed Bucket = 2
	BucketNew            Bucket = 3
	BucketOldLapsed      Bucket = 4
)

// FillOrder lists the buckets in the priority they are drawn from.
var FillOrder = []Bucket{BucketDueToday, BucketRecentlyLapsed, BucketNew, BucketOldLapsed}

// IsValid checks if the bucket is one of the four known classes.
func (b Bucket) IsValid() bool {
	switch b {
	case BucketDueToday, BucketRecentlyLapsed, BucketNew, BucketOldLapsed:
		return true
	default:
		return false
	}
}

// String returns a human-readable label.
func (b Bucket) String() string {
	switch b {
	case BucketDueToday:
		return "due_today"
	case BucketRecentlyLapsed:
		return "recently_lapsed"
	case BucketNew:
		return "new"
	case BucketOldLapsed:
		return "old_lapsed"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}
