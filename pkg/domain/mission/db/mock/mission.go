package mock

import (
	"context"
	"errors"

	"github.com/opensdc/dbflow/pkg/domain"
	kdb "github.com/opensdc/dbflow/pkg/domain/mission/db"
)

type Interface struct {
	Impl struct {
		GetMission         func(context.Context, string) (domain.Mission, error)
		RegisterMission    func(context.Context, domain.Mission) (domain.Mission, error)
		RegisterSatellite  func(context.Context, domain.Satellite) (domain.Satellite, error)
		RegisterInstrument func(context.Context, domain.Instrument) (domain.Instrument, error)
		RegisterProduct    func(context.Context, domain.Product) (domain.Product, error)
		RegisterInspector  func(context.Context, domain.Inspector) (domain.Inspector, error)
		GetProduct         func(context.Context, int64) (domain.Product, error)
		GetProductByName   func(context.Context, string) (domain.Product, error)
		Products           func(context.Context) ([]domain.Product, error)
		ActiveInspectors   func(context.Context) ([]domain.Inspector, error)
		Traceback          func(context.Context, int64) (domain.Traceback, error)
	}
	Calls struct {
		GetMission       []string
		GetProduct       []int64
		GetProductByName []string
		ActiveInspectors int
		Traceback        []int64
	}
}

func New() *Interface {
	return &Interface{}
}

var _ kdb.Interface = &Interface{}

func (m *Interface) GetMission(ctx context.Context, name string) (domain.Mission, error) {
	m.Calls.GetMission = append(m.Calls.GetMission, name)
	if m.Impl.GetMission != nil {
		return m.Impl.GetMission(ctx, name)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RegisterMission(ctx context.Context, mission domain.Mission) (domain.Mission, error) {
	if m.Impl.RegisterMission != nil {
		return m.Impl.RegisterMission(ctx, mission)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RegisterSatellite(ctx context.Context, satellite domain.Satellite) (domain.Satellite, error) {
	if m.Impl.RegisterSatellite != nil {
		return m.Impl.RegisterSatellite(ctx, satellite)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RegisterInstrument(ctx context.Context, instrument domain.Instrument) (domain.Instrument, error) {
	if m.Impl.RegisterInstrument != nil {
		return m.Impl.RegisterInstrument(ctx, instrument)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RegisterProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if m.Impl.RegisterProduct != nil {
		return m.Impl.RegisterProduct(ctx, product)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RegisterInspector(ctx context.Context, inspector domain.Inspector) (domain.Inspector, error) {
	if m.Impl.RegisterInspector != nil {
		return m.Impl.RegisterInspector(ctx, inspector)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) GetProduct(ctx context.Context, productId int64) (domain.Product, error) {
	m.Calls.GetProduct = append(m.Calls.GetProduct, productId)
	if m.Impl.GetProduct != nil {
		return m.Impl.GetProduct(ctx, productId)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) GetProductByName(ctx context.Context, name string) (domain.Product, error) {
	m.Calls.GetProductByName = append(m.Calls.GetProductByName, name)
	if m.Impl.GetProductByName != nil {
		return m.Impl.GetProductByName(ctx, name)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Products(ctx context.Context) ([]domain.Product, error) {
	if m.Impl.Products != nil {
		return m.Impl.Products(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) ActiveInspectors(ctx context.Context) ([]domain.Inspector, error) {
	m.Calls.ActiveInspectors += 1
	if m.Impl.ActiveInspectors != nil {
		return m.Impl.ActiveInspectors(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) Traceback(ctx context.Context, productId int64) (domain.Traceback, error) {
	m.Calls.Traceback = append(m.Calls.Traceback, productId)
	if m.Impl.Traceback != nil {
		return m.Impl.Traceback(ctx, productId)
	}
	panic(errors.New("it should not be called"))
}
