package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
)

func TestCollapseQueue(t *testing.T) {
	jan1 := day(2012, time.January, 1)
	jan2 := day(2012, time.January, 2)

	// file id -> (product, date, version)
	files := map[int64]struct {
		key domain.QueueEntryKey
		ver domain.Version
	}{
		1: {domain.QueueEntryKey{ProductId: 10, UtcFileDate: jan1}, domain.Version{Interface: 1}},
		2: {domain.QueueEntryKey{ProductId: 10, UtcFileDate: jan1}, domain.Version{Interface: 1, Quality: 1}},
		3: {domain.QueueEntryKey{ProductId: 10, UtcFileDate: jan2}, domain.Version{Interface: 1}},
		4: {domain.QueueEntryKey{ProductId: 20, UtcFileDate: jan1}, domain.Version{Interface: 2}},
		5: {domain.QueueEntryKey{ProductId: 10, UtcFileDate: jan1}, domain.Version{Interface: 1, Quality: 0, Revision: 9}},
	}
	meta := func(e domain.QueueEntry) (domain.QueueEntryKey, domain.Version, error) {
		f, ok := files[e.FileId]
		if !ok {
			return domain.QueueEntryKey{}, domain.Version{}, errors.New("no such file")
		}
		return f.key, f.ver, nil
	}

	t.Run("keeps only the greatest version per (product, date)", func(t *testing.T) {
		entries := []domain.QueueEntry{
			{FileId: 1}, {FileId: 2}, {FileId: 3}, {FileId: 4}, {FileId: 5},
		}
		got := domain.CollapseQueue(entries, meta)
		want := []domain.QueueEntry{{FileId: 2}, {FileId: 3}, {FileId: 4}}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for nth := range want {
			if !got[nth].Equal(want[nth]) {
				t.Errorf("entry %d: got %v, want %v", nth, got[nth], want[nth])
			}
		}
	})

	t.Run("preserves ordering of survivors", func(t *testing.T) {
		entries := []domain.QueueEntry{
			{FileId: 4}, {FileId: 1}, {FileId: 3}, {FileId: 2},
		}
		got := domain.CollapseQueue(entries, meta)
		want := []domain.QueueEntry{{FileId: 4}, {FileId: 3}, {FileId: 2}}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for nth := range want {
			if !got[nth].Equal(want[nth]) {
				t.Errorf("entry %d: got %v, want %v", nth, got[nth], want[nth])
			}
		}
	})

	t.Run("drops entries whose file cannot be resolved", func(t *testing.T) {
		entries := []domain.QueueEntry{{FileId: 99}, {FileId: 1}}
		got := domain.CollapseQueue(entries, meta)
		if len(got) != 1 || got[0].FileId != 1 {
			t.Errorf("got %v, want [{1}]", got)
		}
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		if got := domain.CollapseQueue(nil, meta); len(got) != 0 {
			t.Errorf("got %v, want nothing", got)
		}
	})
}
