package keypager

const (
	NoLimit      = -1
	MaxLimit     = 100
	DefaultLimit = 10
)

// Limits holds the page size bounds a pager normalizes requested limits to.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits returns the package-wide DefaultLimit and MaxLimit.
func DefaultLimits() Limits {
	return Limits{Default: DefaultLimit, Max: MaxLimit}
}

// Normalize clamps limit into [1, Max]; non-positive limits become Default.
// The second value is false when the limit had to be changed.
func (l Limits) Normalize(limit int) (int, bool) {
	def, maxLimit := l.Default, l.Max
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if def <= 0 || def > maxLimit {
		def = min(DefaultLimit, maxLimit)
	}

	if limit <= 0 {
		return def, false
	} else if limit > maxLimit {
		return maxLimit, false
	}

	return limit, true
}

func IsNormalizedLimitMax(limit int, maxLimit int) (int, bool) {
	return Limits{Default: DefaultLimit, Max: maxLimit}.Normalize(limit)
}

func NormalizeLimitMax(limit int, maxLimit int) int {
	ret, _ := IsNormalizedLimitMax(limit, maxLimit)
	return ret
}

func NormalizeLimit(limit int) int {
	return NormalizeLimitMax(limit, MaxLimit)
}
