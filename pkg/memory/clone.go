package memory

// cloneVector copies a vector so callers cannot mutate stored state through
// a retained slice. Entries are copied by value; reference payloads remain
// shared, which is the caller's contract to respect.
func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
