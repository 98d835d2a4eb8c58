package mock

import (
	"context"
	"errors"

	"github.com/opensdc/dbflow/pkg/domain"
	kdb "github.com/opensdc/dbflow/pkg/domain/process/db"
)

type Interface struct {
	Impl struct {
		Get               func(context.Context, int64) (domain.Process, error)
		GetByName         func(context.Context, string) (domain.Process, error)
		ChildrenOfProduct func(context.Context, int64) ([]domain.Process, error)
		InputsOf          func(context.Context, int64) ([]domain.ProductProcessLink, error)
		NewestCode        func(context.Context, int64) (domain.Code, error)
		GetCode           func(context.Context, int64) (domain.Code, error)
		StartupProcesses  func(context.Context) ([]domain.Process, error)
		RegisterProcess   func(context.Context, domain.Process) (domain.Process, error)
		RegisterCode      func(context.Context, domain.Code) (domain.Code, error)
		RegisterInputLink func(context.Context, domain.ProductProcessLink) error
		Traceback         func(context.Context, int64) (domain.ProcessTraceback, error)
	}
	Calls struct {
		ChildrenOfProduct []int64
		InputsOf          []int64
		NewestCode        []int64
		StartupProcesses  int
	}
}

func New() *Interface {
	return &Interface{}
}

var _ kdb.Interface = &Interface{}

func (m *Interface) Get(ctx context.Context, processId int64) (domain.Process, error) {
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, processId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) GetByName(ctx context.Context, name string) (domain.Process, error) {
	if m.Impl.GetByName != nil {
		return m.Impl.GetByName(ctx, name)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) ChildrenOfProduct(ctx context.Context, productId int64) ([]domain.Process, error) {
	m.Calls.ChildrenOfProduct = append(m.Calls.ChildrenOfProduct, productId)
	if m.Impl.ChildrenOfProduct != nil {
		return m.Impl.ChildrenOfProduct(ctx, productId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) InputsOf(ctx context.Context, processId int64) ([]domain.ProductProcessLink, error) {
	m.Calls.InputsOf = append(m.Calls.InputsOf, processId)
	if m.Impl.InputsOf != nil {
		return m.Impl.InputsOf(ctx, processId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) NewestCode(ctx context.Context, processId int64) (domain.Code, error) {
	m.Calls.NewestCode = append(m.Calls.NewestCode, processId)
	if m.Impl.NewestCode != nil {
		return m.Impl.NewestCode(ctx, processId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) GetCode(ctx context.Context, codeId int64) (domain.Code, error) {
	if m.Impl.GetCode != nil {
		return m.Impl.GetCode(ctx, codeId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) StartupProcesses(ctx context.Context) ([]domain.Process, error) {
	m.Calls.StartupProcesses += 1
	if m.Impl.StartupProcesses != nil {
		return m.Impl.StartupProcesses(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RegisterProcess(ctx context.Context, process domain.Process) (domain.Process, error) {
	if m.Impl.RegisterProcess != nil {
		return m.Impl.RegisterProcess(ctx, process)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RegisterCode(ctx context.Context, code domain.Code) (domain.Code, error) {
	if m.Impl.RegisterCode != nil {
		return m.Impl.RegisterCode(ctx, code)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RegisterInputLink(ctx context.Context, link domain.ProductProcessLink) error {
	if m.Impl.RegisterInputLink != nil {
		return m.Impl.RegisterInputLink(ctx, link)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Traceback(ctx context.Context, processId int64) (domain.ProcessTraceback, error) {
	if m.Impl.Traceback != nil {
		return m.Impl.Traceback(ctx, processId)
	}
	panic(errors.New("it should not be called"))
}
