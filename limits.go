package gocrud

// NoMaxLimit disables clamping of page limits.
const NoMaxLimit = 0

// IsNormalizedLimitMax returns the limit a page query is actually run with
// and whether it equals the requested one:
//   - maxLimit == NoMaxLimit → limit unchanged;
//   - unset limit or limit > maxLimit → maxLimit;
//   - otherwise → limit unchanged.
func IsNormalizedLimitMax(limit *int, maxLimit int) (*int, bool) {
	if maxLimit <= NoMaxLimit {
		return limit, true
	}

	if limit == nil || *limit > maxLimit {
		return &maxLimit, false
	}

	return limit, true
}

func NormalizeLimitMax(limit *int, maxLimit int) *int {
	ret, _ := IsNormalizedLimitMax(limit, maxLimit)
	return ret
}
