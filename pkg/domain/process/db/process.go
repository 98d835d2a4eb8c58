package db

import (
	"context"

	"github.com/opensdc/dbflow/pkg/domain"
)

// Interface is the catalog client for processes, codes and product-process
// links.
type Interface interface {
	Get(ctx context.Context, processId int64) (domain.Process, error)

	GetByName(ctx context.Context, name string) (domain.Process, error)

	// Processes consuming the given product as an input.
	ChildrenOfProduct(ctx context.Context, productId int64) ([]domain.Process, error)

	// Input links of a process, in input-product id order.
	InputsOf(ctx context.Context, processId int64) ([]domain.ProductProcessLink, error)

	// The single active newest-version code of a process. ErrMissing when
	// the process has none.
	NewestCode(ctx context.Context, processId int64) (domain.Code, error)

	GetCode(ctx context.Context, codeId int64) (domain.Code, error)

	// Processes with STARTUP output timebase, scheduled once per session.
	StartupProcesses(ctx context.Context) ([]domain.Process, error)

	RegisterProcess(ctx context.Context, process domain.Process) (domain.Process, error)

	// Register a code for a process. Marking it active+newest demotes the
	// previously newest code of the process in the same transaction.
	RegisterCode(ctx context.Context, code domain.Code) (domain.Code, error)

	RegisterInputLink(ctx context.Context, link domain.ProductProcessLink) error

	// The ancestry of a process: the process, its newest code, and its
	// input links with their optional/yesterday/tomorrow flags.
	Traceback(ctx context.Context, processId int64) (domain.ProcessTraceback, error)
}
