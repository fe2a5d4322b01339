package ecs

// Each2 calls fn for entities that have both component A and B, walking the
// smaller store in id order and probing the other.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for _, id := range sa.IDs() {
			if b, ok := sb.data[id]; ok {
				fn(id, sa.data[id], b)
			}
		}
		return
	}
	for _, id := range sb.IDs() {
		if a, ok := sa.data[id]; ok {
			fn(id, a, sb.data[id])
		}
	}
}

// Each3 calls fn for entities that have components A, B, and C.
func Each3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(EntityID, *A, *B, *C)) {
	for _, id := range Join3(sa, sb, sc) {
		fn(id, sa.data[id], sb.data[id], sc.data[id])
	}
}

// Join3 returns, in ascending order, the ids present in all three stores.
// Stages that fan work out to workers take this snapshot first so the
// membership cannot shift under them.
func Join3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C]) []EntityID {
	base := sa.IDs()
	switch {
	case sb.Len() < len(base) && sb.Len() <= sc.Len():
		base = sb.IDs()
	case sc.Len() < len(base):
		base = sc.IDs()
	}
	out := make([]EntityID, 0, len(base))
	for _, id := range base {
		if sa.Has(id) && sb.Has(id) && sc.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
