package mock

import (
	"context"
	"errors"

	"github.com/opensdc/dbflow/pkg/domain"
	kdb "github.com/opensdc/dbflow/pkg/domain/queue/db"
)

type Interface struct {
	Impl struct {
		Push    func(context.Context, domain.QueueEntry) error
		Pop     func(context.Context, int) (domain.QueueEntry, bool, error)
		Get     func(context.Context, int) (domain.QueueEntry, bool, error)
		Len     func(context.Context) (int, error)
		Entries func(context.Context, int) ([]domain.QueueEntry, error)
		Flush   func(context.Context) error
		Remove  func(context.Context, int64) error
		Clean   func(context.Context) error
	}
	Calls struct {
		Push   []domain.QueueEntry
		Pop    []int
		Flush  int
		Remove []int64
		Clean  int
	}
}

func New() *Interface {
	return &Interface{}
}

var _ kdb.Interface = &Interface{}

func (m *Interface) Push(ctx context.Context, entry domain.QueueEntry) error {
	m.Calls.Push = append(m.Calls.Push, entry)
	if m.Impl.Push != nil {
		return m.Impl.Push(ctx, entry)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Pop(ctx context.Context, index int) (domain.QueueEntry, bool, error) {
	m.Calls.Pop = append(m.Calls.Pop, index)
	if m.Impl.Pop != nil {
		return m.Impl.Pop(ctx, index)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Get(ctx context.Context, index int) (domain.QueueEntry, bool, error) {
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, index)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Len(ctx context.Context) (int, error) {
	if m.Impl.Len != nil {
		return m.Impl.Len(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Entries(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	if m.Impl.Entries != nil {
		return m.Impl.Entries(ctx, limit)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Flush(ctx context.Context) error {
	m.Calls.Flush += 1
	if m.Impl.Flush != nil {
		return m.Impl.Flush(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Remove(ctx context.Context, fileId int64) error {
	m.Calls.Remove = append(m.Calls.Remove, fileId)
	if m.Impl.Remove != nil {
		return m.Impl.Remove(ctx, fileId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Clean(ctx context.Context) error {
	m.Calls.Clean += 1
	if m.Impl.Clean != nil {
		return m.Impl.Clean(ctx)
	}
	panic(errors.New("it should not be called"))
}
