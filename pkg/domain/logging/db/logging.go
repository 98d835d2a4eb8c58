package db

import (
	"context"

	"github.com/opensdc/dbflow/pkg/domain"
)

// Interface is the catalog client for session audit rows and the
// "currently processing" guard.
type Interface interface {
	// StartSession writes a session row and acquires the guard.
	//
	// At most one session per mission may hold it; when another session is
	// marked currently-processing, ErrLocked is returned and nothing is
	// written.
	StartSession(ctx context.Context, session domain.Session) (domain.Session, error)

	// EndSession stamps the stop time and comment, releasing the guard.
	EndSession(ctx context.Context, sessionId int64, comment string) error

	// CurrentSession returns the session holding the guard, if any.
	CurrentSession(ctx context.Context) (domain.Session, bool, error)

	// ResetStale force-releases the guard left by a crashed session.
	//
	// The operator comment is mandatory. alive reports whether a recorded
	// pid is still running; a session whose pid is alive is not reset.
	ResetStale(ctx context.Context, comment string, alive func(pid int) bool) (bool, error)

	// AddSessionFile records a per-file contribution of a session.
	AddSessionFile(ctx context.Context, record domain.SessionFile) error

	// Sessions in reverse start order.
	RecentSessions(ctx context.Context, limit int) ([]domain.Session, error)
}
