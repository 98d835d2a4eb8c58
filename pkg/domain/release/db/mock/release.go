package mock

import (
	"context"
	"errors"

	kdb "github.com/opensdc/dbflow/pkg/domain/release/db"
)

type Interface struct {
	Impl struct {
		Tag     func(context.Context, int) (int, error)
		FilesOf func(context.Context, int) ([]int64, error)
	}
	Calls struct {
		Tag []int
	}
}

func New() *Interface {
	return &Interface{}
}

var _ kdb.Interface = &Interface{}

func (m *Interface) Tag(ctx context.Context, releaseNum int) (int, error) {
	m.Calls.Tag = append(m.Calls.Tag, releaseNum)
	if m.Impl.Tag != nil {
		return m.Impl.Tag(ctx, releaseNum)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) FilesOf(ctx context.Context, releaseNum int) ([]int64, error) {
	if m.Impl.FilesOf != nil {
		return m.Impl.FilesOf(ctx, releaseNum)
	}
	panic(errors.New("it should not be called"))
}
