package entitlement

import "time"

// CanCreate reports whether one more resource fits under limit.
func CanCreate(limit, count int64) bool {
	return limit == Unlimited || count < limit
}

// RecordCreation returns the counter after an admitted creation.
func RecordCreation(count int64) int64 {
	return count + 1
}

// RecordDeletion returns the counter after deleting a resource created at createdAt.
// Only resources created inside [cycleStart, cycleEnd) are refunded, and the
// counter never drops below zero.
func RecordDeletion(count int64, createdAt, cycleStart, cycleEnd time.Time) int64 {
	if createdAt.Before(cycleStart) || !createdAt.Before(cycleEnd) {
		return count
	}
	return max(0, count-1)
}

// Remaining returns how many more resources fit under limit, or Unlimited.
func Remaining(limit, count int64) int64 {
	if limit == Unlimited {
		return Unlimited
	}
	return max(0, limit-count)
}
