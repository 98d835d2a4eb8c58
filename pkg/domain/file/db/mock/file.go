package mock

import (
	"context"
	"errors"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
	kdb "github.com/opensdc/dbflow/pkg/domain/file/db"
)

type Interface struct {
	Impl struct {
		Get                    func(context.Context, []int64) (map[int64]domain.File, error)
		GetByFilename          func(context.Context, string) (domain.File, error)
		Register               func(context.Context, domain.File) (domain.File, error)
		NewestByProductAndDate func(context.Context, int64, time.Time) (domain.File, error)
		NewestInRange          func(context.Context, int64, time.Time, time.Time) ([]domain.File, error)
		RecordLineage          func(context.Context, int64, []int64, int64) error
		Lineage                func(context.Context, int64) (domain.Lineage, error)
		SetExistsOnDisk        func(context.Context, int64, bool) error
		OnDisk                 func(context.Context, int, int64) ([]domain.File, error)
		Purge                  func(context.Context, int64) error
		Traceback              func(context.Context, int64) (domain.FileTraceback, error)
	}
	Calls struct {
		Get           [][]int64
		GetByFilename []string
		Register      []domain.File
		NewestInRange []struct {
			ProductId   int64
			First, Last time.Time
		}
		RecordLineage []struct {
			ResultingFileId int64
			SourceFileIds   []int64
			CodeId          int64
		}
		SetExistsOnDisk []struct {
			FileId int64
			Exists bool
		}
		Purge []int64
	}
}

func New() *Interface {
	return &Interface{}
}

var _ kdb.Interface = &Interface{}

func (m *Interface) Get(ctx context.Context, fileIds []int64) (map[int64]domain.File, error) {
	m.Calls.Get = append(m.Calls.Get, fileIds)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, fileIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) GetByFilename(ctx context.Context, basename string) (domain.File, error) {
	m.Calls.GetByFilename = append(m.Calls.GetByFilename, basename)
	if m.Impl.GetByFilename != nil {
		return m.Impl.GetByFilename(ctx, basename)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Register(ctx context.Context, file domain.File) (domain.File, error) {
	m.Calls.Register = append(m.Calls.Register, file)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, file)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) NewestByProductAndDate(ctx context.Context, productId int64, date time.Time) (domain.File, error) {
	if m.Impl.NewestByProductAndDate != nil {
		return m.Impl.NewestByProductAndDate(ctx, productId, date)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) NewestInRange(ctx context.Context, productId int64, first, last time.Time) ([]domain.File, error) {
	m.Calls.NewestInRange = append(m.Calls.NewestInRange, struct {
		ProductId   int64
		First, Last time.Time
	}{ProductId: productId, First: first, Last: last})
	if m.Impl.NewestInRange != nil {
		return m.Impl.NewestInRange(ctx, productId, first, last)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RecordLineage(ctx context.Context, resultingFileId int64, sourceFileIds []int64, codeId int64) error {
	m.Calls.RecordLineage = append(m.Calls.RecordLineage, struct {
		ResultingFileId int64
		SourceFileIds   []int64
		CodeId          int64
	}{ResultingFileId: resultingFileId, SourceFileIds: sourceFileIds, CodeId: codeId})
	if m.Impl.RecordLineage != nil {
		return m.Impl.RecordLineage(ctx, resultingFileId, sourceFileIds, codeId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Lineage(ctx context.Context, fileId int64) (domain.Lineage, error) {
	if m.Impl.Lineage != nil {
		return m.Impl.Lineage(ctx, fileId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) SetExistsOnDisk(ctx context.Context, fileId int64, exists bool) error {
	m.Calls.SetExistsOnDisk = append(m.Calls.SetExistsOnDisk, struct {
		FileId int64
		Exists bool
	}{FileId: fileId, Exists: exists})
	if m.Impl.SetExistsOnDisk != nil {
		return m.Impl.SetExistsOnDisk(ctx, fileId, exists)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) OnDisk(ctx context.Context, limit int, after int64) ([]domain.File, error) {
	if m.Impl.OnDisk != nil {
		return m.Impl.OnDisk(ctx, limit, after)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Purge(ctx context.Context, fileId int64) error {
	m.Calls.Purge = append(m.Calls.Purge, fileId)
	if m.Impl.Purge != nil {
		return m.Impl.Purge(ctx, fileId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Traceback(ctx context.Context, fileId int64) (domain.FileTraceback, error) {
	if m.Impl.Traceback != nil {
		return m.Impl.Traceback(ctx, fileId)
	}
	panic(errors.New("it should not be called"))
}
