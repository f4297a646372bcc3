package pipeline

import (
	"time"

	"github.com/fpang/memories-download/internal/manifest"
)

// monthNames maps two-digit month codes to display labels.
var monthNames = map[string]string{
	"01": "January",
	"02": "February",
	"03": "March",
	"04": "April",
	"05": "May",
	"06": "June",
	"07": "July",
	"08": "August",
	"09": "September",
	"10": "October",
	"11": "November",
	"12": "December",
}

// MonthName returns the display label for a two-digit month code.
func MonthName(code string) string {
	return monthNames[code]
}

// progressEvery is the per-month interval between milestone notifications.
const progressEvery = 10

// MonthBucket is the month currently being reported and how many items of it
// have been processed.
type MonthBucket struct {
	Year  string
	Month string
	Count int
}

// ProgressReporter turns per-item completions into a throttled stream of
// month-bucketed notifications.
type ProgressReporter struct {
	kind   manifest.MediaType
	bucket MonthBucket
}

// NewProgressReporter creates a reporter for one batch.
func NewProgressReporter(kind manifest.MediaType) *ProgressReporter {
	return &ProgressReporter{kind: kind}
}

// Bucket returns the current month bucket.
func (r *ProgressReporter) Bucket() MonthBucket {
	return r.bucket
}

// Observe records one processed item and returns a notification when it is
// a milestone: the first item, the last item, every tenth item of a month, or
// the first item of a new month. index is 1-based.
func (r *ProgressReporter) Observe(taken time.Time, index, total int) (Notification, bool) {
	date := taken.Format("2006-01-02")
	year, month := date[0:4], date[5:7]

	emit := index == 1 || index == total
	if r.bucket.Month != month || r.bucket.Year != year {
		r.bucket = MonthBucket{Year: year, Month: month, Count: 1}
		emit = true
	} else {
		r.bucket.Count++
		if r.bucket.Count%progressEvery == 0 {
			emit = true
		}
	}

	if !emit {
		return Notification{}, false
	}

	n := Notification{
		Kind:  KindProgress,
		Count: index,
		Type:  r.kind,
		Date: MonthLabel{
			Year:  r.bucket.Year,
			Month: MonthName(r.bucket.Month),
		},
	}
	if index == 1 {
		n.Total = total
	}
	return n, true
}
