package domain

import "time"

// QueueEntry is one element of the process queue: a file id awaiting
// downstream build evaluation, with an optional forced version bump.
type QueueEntry struct {
	FileId int64
	Bump   VersionBump
}

func (q QueueEntry) Equal(other QueueEntry) bool {
	return q.FileId == other.FileId && q.Bump == other.Bump
}

// QueueEntryKey identifies the duplicate-collapse group of an entry.
type QueueEntryKey struct {
	ProductId   int64
	UtcFileDate time.Time
}

// CollapseQueue keeps, per (product, date), only the entry whose file has the
// greatest Version. Ordering of surviving entries is preserved.
//
// meta resolves an entry's collapse key and file version; entries it fails on
// are dropped.
func CollapseQueue(
	entries []QueueEntry,
	meta func(QueueEntry) (QueueEntryKey, Version, error),
) []QueueEntry {
	type best struct {
		pos     int
		version Version
	}
	winner := map[QueueEntryKey]best{}
	keys := make([]QueueEntryKey, len(entries))
	ok := make([]bool, len(entries))

	for nth, e := range entries {
		key, ver, err := meta(e)
		if err != nil {
			continue
		}
		keys[nth] = key
		ok[nth] = true
		if w, found := winner[key]; !found || w.version.Less(ver) {
			winner[key] = best{pos: nth, version: ver}
		}
	}

	survivors := []QueueEntry{}
	for nth, e := range entries {
		if !ok[nth] {
			continue
		}
		if winner[keys[nth]].pos == nth {
			survivors = append(survivors, e)
		}
	}
	return survivors
}
