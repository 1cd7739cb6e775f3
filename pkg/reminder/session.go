package reminder

// InferSession partitions a user into a reminder session from their phone
// number: strip non-digits, no digits defaults to evening, otherwise the last
// digit decides (odd morning, even evening). The rule is deterministic and
// stateless, giving a stable roughly even split without a stored preference.
// It must not change: users would silently switch windows.
func InferSession(phone string) Session {
	var last byte
	var found bool
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			last = phone[i]
			found = true
		}
	}
	if !found {
		return SessionEvening
	}
	if (last-'0')%2 == 1 {
		return SessionMorning
	}
	return SessionEvening
}
