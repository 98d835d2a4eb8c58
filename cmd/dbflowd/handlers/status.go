package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierr "github.com/opensdc/dbflow/pkg/api/types/errors"
	"github.com/opensdc/dbflow/pkg/api/types/status"
	"github.com/opensdc/dbflow/pkg/domain"
	kerr "github.com/opensdc/dbflow/pkg/domain/errors"
	filedb "github.com/opensdc/dbflow/pkg/domain/file/db"
	loggingdb "github.com/opensdc/dbflow/pkg/domain/logging/db"
	queuedb "github.com/opensdc/dbflow/pkg/domain/queue/db"
	"github.com/opensdc/dbflow/pkg/utils/slices"
)

// how many queue entries a single response reports.
const queuePageSize = 100

// GetQueueHandler reports the process queue, head first, each entry joined
// with its file row.
func GetQueueHandler(queue queuedb.Interface, files filedb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		c.Response().Header().Add("Content-Type", "application/json")

		length, err := queue.Len(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		entries, err := queue.Entries(ctx, queuePageSize)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		found, err := files.Get(ctx, slices.Map(
			entries, func(e domain.QueueEntry) int64 { return e.FileId },
		))
		if err != nil {
			return apierr.InternalServerError(err)
		}

		rsp := status.Queue{Length: length, Entries: []status.QueueEntry{}}
		for _, entry := range entries {
			var file *domain.File
			if f, ok := found[entry.FileId]; ok {
				file = &f
			}
			rsp.Entries = append(rsp.Entries, status.FromQueueEntry(entry, file))
		}

		return c.JSON(http.StatusOK, rsp)
	}
}

// GetSessionHandler reports the currently processing session and the recent
// session history. 404 when no session holds the guard.
func GetSessionHandler(logging loggingdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		c.Response().Header().Add("Content-Type", "application/json")

		current, ok, err := logging.CurrentSession(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if !ok {
			return apierr.NotFound()
		}

		return c.JSON(http.StatusOK, status.FromSession(current))
	}
}

// GetSessionsHandler lists recent sessions, newest first.
func GetSessionsHandler(logging loggingdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		c.Response().Header().Add("Content-Type", "application/json")

		limit := 10
		if param := c.QueryParam("limit"); param != "" {
			n, err := strconv.Atoi(param)
			if err != nil || n <= 0 {
				return apierr.BadRequest("limit should be a positive integer", err)
			}
			limit = n
		}

		sessions, err := logging.RecentSessions(ctx, limit)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, slices.Map(sessions, status.FromSession))
	}
}

// GetFileTracebackHandler reports a file with its full product ancestry.
func GetFileTracebackHandler(files filedb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		c.Response().Header().Add("Content-Type", "application/json")

		fileId, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return apierr.BadRequest("file id should be an integer", err)
		}

		tb, err := files.Traceback(ctx, fileId)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, status.FromTraceback(tb))
	}
}
