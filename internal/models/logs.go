package models

import "time"

// LogGroup holds the attributes of a CloudWatch Log Group observed during a scan.
// It is a snapshot: nothing re-reads the group before it is deleted.
type LogGroup struct {
	Name            string
	ARN             string
	CreationTime    time.Time
	RetentionInDays *int32 // nil means "Never expire"
	StoredBytes     int64
}

// HasRetention reports whether the group has an explicit retention setting.
func (g LogGroup) HasRetention() bool {
	return g.RetentionInDays != nil
}

// LogGroupPage is one page of a DescribeLogGroups listing.
type LogGroupPage struct {
	Groups    []LogGroup
	NextToken string // empty on the last page
}
