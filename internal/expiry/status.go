package expiry

import "fmt"

// Bucket is the four-way expiry severity class.
type Bucket string

const (
	BucketExpired Bucket = "expired"
	BucketWarning Bucket = "warning"
	BucketCaution Bucket = "caution"
	BucketSafe    Bucket = "safe"
)

const (
	warningMaxDays = 30
	cautionMaxDays = 90
)

// Status is a classified expiry with its human-readable message.
type Status struct {
	Bucket  Bucket `json:"bucket"`
	Message string `json:"message"`
}

// Classify maps a signed day difference to exactly one bucket.
// Day 30 is still warning and day 90 is still caution.
func Classify(days int) Status {
	switch {
	case days < 0:
		return Status{Bucket: BucketExpired, Message: fmt.Sprintf("Expired %d days ago", -days)}
	case days <= warningMaxDays:
		return Status{Bucket: BucketWarning, Message: fmt.Sprintf("Expires in %d days", days)}
	case days <= cautionMaxDays:
		return Status{Bucket: BucketCaution, Message: fmt.Sprintf("Expires in %d days", days)}
	default:
		return Status{Bucket: BucketSafe, Message: fmt.Sprintf("Expires in %d days", days)}
	}
}

// Window is the coarser three-way partition used by list filters and stats.
// It merges warning and caution into expiring.
type Window string

const (
	WindowExpired  Window = "expired"
	WindowExpiring Window = "expiring"
	WindowSafe     Window = "safe"
)

// Coarse places a day difference in its three-way window.
func Coarse(days int) Window {
	switch {
	case days < 0:
		return WindowExpired
	case days <= cautionMaxDays:
		return WindowExpiring
	default:
		return WindowSafe
	}
}

// Appearance holds the display attributes for a bucket.
type Appearance struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

var appearances = map[Bucket]Appearance{
	BucketExpired: {Color: "red", Label: "Expired"},
	BucketWarning: {Color: "yellow", Label: "Expiring Soon"},
	BucketCaution: {Color: "orange", Label: "Expiring"},
	BucketSafe:    {Color: "green", Label: "Valid"},
}

// AppearanceFor is the single bucket to display mapping shared by every view.
func AppearanceFor(b Bucket) Appearance {
	if a, ok := appearances[b]; ok {
		return a
	}
	return Appearance{Color: "gray", Label: "Unknown"}
}
