package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"typed-kv-service/internal/engine"
	"typed-kv-service/internal/store"
)

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

// parseSetOptions reads the SET modifiers that follow key and value.
func parseSetOptions(args []string) (engine.SetOptions, error) {
	var (
		opts   engine.SetOptions
		hasTTL bool
	)
	for i := 0; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "NX":
			if opts.Condition == store.IfPresent {
				return opts, ErrSyntax
			}
			opts.Condition = store.IfAbsent
		case "XX":
			if opts.Condition == store.IfAbsent {
				return opts, ErrSyntax
			}
			opts.Condition = store.IfPresent
		case "KEEPTTL":
			if hasTTL {
				return opts, ErrSyntax
			}
			opts.KeepTTL = true
		case "EX", "PX":
			if hasTTL || opts.KeepTTL || i+1 >= len(args) {
				return opts, ErrSyntax
			}
			n, err := parseInt(args[i+1])
			if err != nil {
				return opts, err
			}
			if n <= 0 {
				return opts, fmt.Errorf("%w in 'set' command", ErrInvalidExpire)
			}
			unit := time.Second
			if strings.EqualFold(args[i], "PX") {
				unit = time.Millisecond
			}
			if opts.TTL, err = expireDuration(n, unit, "set"); err != nil {
				return opts, err
			}
			hasTTL = true
			i++
		default:
			return opts, ErrSyntax
		}
	}
	return opts, nil
}

// parseSortOptions reads SORT's LIMIT, ASC/DESC and ALPHA modifiers.
// BY, GET and STORE are not supported.
func parseSortOptions(args []string) (engine.SortOptions, error) {
	var opts engine.SortOptions
	for i := 0; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "ASC":
			opts.Desc = false
		case "DESC":
			opts.Desc = true
		case "ALPHA":
			opts.Alpha = true
		case "LIMIT":
			if i+2 >= len(args) {
				return opts, ErrSyntax
			}
			offset, err := parseInt(args[i+1])
			if err != nil {
				return opts, err
			}
			count, err := parseInt(args[i+2])
			if err != nil {
				return opts, err
			}
			opts.Limit = &engine.SortLimit{Offset: clampInt(offset), Count: clampInt(count)}
			i += 2
		default:
			return opts, ErrSyntax
		}
	}
	return opts, nil
}

// clampInt narrows n to the platform int range.
func clampInt(n int64) int {
	switch {
	case n > math.MaxInt:
		return math.MaxInt
	case n < math.MinInt:
		return math.MinInt
	default:
		return int(n)
	}
}

// expireDuration converts n units into a duration, rejecting values that
// do not fit.
func expireDuration(n int64, unit time.Duration, cmd string) (time.Duration, error) {
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return 0, fmt.Errorf("%w in '%s' command", ErrInvalidExpire, cmd)
	}
	return time.Duration(n) * unit, nil
}

// ttlReply renders a remaining lifetime the way TTL and PTTL do: -2 for a
// missing key, -1 for a key without expiry.
func ttlReply(ttl time.Duration, found bool, unit time.Duration) int64 {
	switch {
	case !found:
		return -2
	case ttl == store.NoExpiry:
		return -1
	default:
		return int64((ttl + unit/2) / unit)
	}
}
