package mock

import (
	"context"
	"errors"

	"github.com/opensdc/dbflow/pkg/domain"
	kdb "github.com/opensdc/dbflow/pkg/domain/logging/db"
)

type Interface struct {
	Impl struct {
		StartSession   func(context.Context, domain.Session) (domain.Session, error)
		EndSession     func(context.Context, int64, string) error
		CurrentSession func(context.Context) (domain.Session, bool, error)
		ResetStale     func(context.Context, string, func(int) bool) (bool, error)
		AddSessionFile func(context.Context, domain.SessionFile) error
		RecentSessions func(context.Context, int) ([]domain.Session, error)
	}
	Calls struct {
		StartSession []domain.Session
		EndSession   []struct {
			SessionId int64
			Comment   string
		}
		AddSessionFile []domain.SessionFile
	}
}

func New() *Interface {
	return &Interface{}
}

var _ kdb.Interface = &Interface{}

func (m *Interface) StartSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	m.Calls.StartSession = append(m.Calls.StartSession, session)
	if m.Impl.StartSession != nil {
		return m.Impl.StartSession(ctx, session)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) EndSession(ctx context.Context, sessionId int64, comment string) error {
	m.Calls.EndSession = append(m.Calls.EndSession, struct {
		SessionId int64
		Comment   string
	}{SessionId: sessionId, Comment: comment})
	if m.Impl.EndSession != nil {
		return m.Impl.EndSession(ctx, sessionId, comment)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) CurrentSession(ctx context.Context) (domain.Session, bool, error) {
	if m.Impl.CurrentSession != nil {
		return m.Impl.CurrentSession(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) ResetStale(ctx context.Context, comment string, alive func(int) bool) (bool, error) {
	if m.Impl.ResetStale != nil {
		return m.Impl.ResetStale(ctx, comment, alive)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) AddSessionFile(ctx context.Context, record domain.SessionFile) error {
	m.Calls.AddSessionFile = append(m.Calls.AddSessionFile, record)
	if m.Impl.AddSessionFile != nil {
		return m.Impl.AddSessionFile(ctx, record)
	}
	panic(errors.New("it should not be called"))
}

func (m *Interface) RecentSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	if m.Impl.RecentSessions != nil {
		return m.Impl.RecentSessions(ctx, limit)
	}
	panic(errors.New("it should not be called"))
}
