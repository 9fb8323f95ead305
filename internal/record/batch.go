package record

// batch.go implements the review table reconciler.
//
// A Batch is a snapshot of the working (not-yet-submitted) records under
// review. Every operation takes the latest snapshot and produces the
// next one without mutating its input, so rapid sequential UI edits are
// last-writer-wins in call order and never observe a stale snapshot.

// Batch is an ordered collection of records under review.
type Batch []LogRecord

// EditField returns a new batch where the record matching id has the
// field replaced by value. All other records and their identities are
// unchanged. An unknown id is a no-op, not an error.
func (b Batch) EditField(id string, f Field, value string) Batch {
	out := make(Batch, len(b))
	for i, r := range b {
		if r.ID == id {
			out[i] = r.Set(f, value)
		} else {
			out[i] = r
		}
	}
	return out
}

// Remove returns a new batch with the matching record excluded,
// preserving the order of the remaining records. An unknown id is a
// no-op.
func (b Batch) Remove(id string) Batch {
	out := make(Batch, 0, len(b))
	for _, r := range b {
		if r.ID == id {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Find returns the record with the given id.
func (b Batch) Find(id string) (LogRecord, bool) {
	for _, r := range b {
		if r.ID == id {
			return r, true
		}
	}
	return LogRecord{}, false
}
