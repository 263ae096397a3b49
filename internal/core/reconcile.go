package core

// Reconcile replaces the earliest temporary message matching confirmed by
// sender, receiver and text with the canonical record, keeping its
// position. It returns the replaced index, or false if nothing matched;
// an unmatched confirmation never inserts.
//
// Two identical pending sends to the same peer are ambiguous; the first
// temporary entry always wins.
func Reconcile(seq []Message, confirmed Message) (int, bool) {
	for i := range seq {
		if !seq[i].Temp || !seq[i].sameContent(confirmed) {
			continue
		}
		canonical := confirmed
		canonical.Temp = false
		if !canonical.Status.Valid() {
			canonical.Status = StatusSent
		}
		// The replacement must not lower the entry's status.
		if !ShouldUpgrade(seq[i].Status, canonical.Status) {
			canonical.Status = seq[i].Status
		}
		if canonical.CreatedAt.IsZero() {
			canonical.CreatedAt = seq[i].CreatedAt
		}
		seq[i] = canonical
		return i, true
	}
	return -1, false
}
