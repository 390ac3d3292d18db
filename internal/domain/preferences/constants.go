package preferences

const (
	KeyTimeline = "timeline"

	MaxValueBytes = 16 << 10
)
