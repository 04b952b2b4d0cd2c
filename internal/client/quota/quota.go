// Package quota computes storage usage levels against the vault's fixed
// per-account limit. Each media category gets an equal slice of the
// total allowance.
package quota

// TotalLimitBytes is the per-account storage allowance (20 GiB).
const TotalLimitBytes int64 = 21474836480

// CategoryLimitBytes is the per-category allowance, 30% of the total.
const CategoryLimitBytes = int64(float64(TotalLimitBytes) * 0.30)

// Per-file upload caps, enforced before any bytes leave the client.
const (
	MaxPhotoFileBytes int64 = 15 * 1024 * 1024
	MaxVideoFileBytes int64 = 100 * 1024 * 1024
)

// Level classifies how close a usage figure is to its limit.
type Level int

const (
	LevelOK Level = iota
	LevelNearFull
	LevelOverLimit
)

func (l Level) String() string {
	switch l {
	case LevelNearFull:
		return "near-full"
	case LevelOverLimit:
		return "over-limit"
	default:
		return "ok"
	}
}

// Usage is a used/limit pair for one category or the whole account.
type Usage struct {
	UsedBytes  int64
	LimitBytes int64
}

// Percentage returns used/limit as a percentage. A zero limit reports
// 0 rather than dividing by zero.
func (u Usage) Percentage() float64 {
	if u.LimitBytes <= 0 {
		return 0
	}
	return float64(u.UsedBytes) / float64(u.LimitBytes) * 100
}

// Level applies the warning thresholds: 80% is near-full, 100% is
// over-limit.
func (u Usage) Level() Level {
	p := u.Percentage()
	switch {
	case p >= 100:
		return LevelOverLimit
	case p >= 80:
		return LevelNearFull
	default:
		return LevelOK
	}
}

// Snapshot aggregates per-category usage for one account.
type Snapshot struct {
	Photos    Usage
	Videos    Usage
	Documents Usage
	Memories  Usage
}

// NewSnapshot builds a snapshot from raw byte counts, applying the
// category limit to every slot.
func NewSnapshot(photos, videos, documents, memories int64) Snapshot {
	u := func(n int64) Usage { return Usage{UsedBytes: n, LimitBytes: CategoryLimitBytes} }
	return Snapshot{
		Photos:    u(photos),
		Videos:    u(videos),
		Documents: u(documents),
		Memories:  u(memories),
	}
}

// Total sums the categories. Both sides aggregate the same way: used
// bytes across categories against the sum of the category limits.
func (s Snapshot) Total() Usage {
	used := s.Photos.UsedBytes + s.Videos.UsedBytes + s.Documents.UsedBytes + s.Memories.UsedBytes
	return Usage{UsedBytes: used, LimitBytes: 4 * CategoryLimitBytes}
}
