package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opensdc/dbflow/cmd/dbflowd/handlers"
	httptestutil "github.com/opensdc/dbflow/internal/testutils/http"
	"github.com/opensdc/dbflow/pkg/api/types/status"
	"github.com/opensdc/dbflow/pkg/domain"
	kerr "github.com/opensdc/dbflow/pkg/domain/errors"
	mockfile "github.com/opensdc/dbflow/pkg/domain/file/db/mock"
	mocklogging "github.com/opensdc/dbflow/pkg/domain/logging/db/mock"
	mockqueue "github.com/opensdc/dbflow/pkg/domain/queue/db/mock"
)

func TestGetQueueHandler(t *testing.T) {

	day := func(value string) time.Time {
		d, err := time.Parse("2006-01-02", value)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	t.Run("it reports entries joined with their files", func(t *testing.T) {
		queue := mockqueue.New()
		queue.Impl.Len = func(context.Context) (int, error) { return 3, nil }
		queue.Impl.Entries = func(_ context.Context, limit int) ([]domain.QueueEntry, error) {
			return []domain.QueueEntry{
				{FileId: 10, Bump: domain.BumpNone},
				{FileId: 11, Bump: domain.BumpQuality},
				{FileId: 12, Bump: domain.BumpNone},
			}, nil
		}

		files := mockfile.New()
		files.Impl.Get = func(_ context.Context, ids []int64) (map[int64]domain.File, error) {
			return map[int64]domain.File{
				10: {
					Id: 10, Filename: "L0_20120101_v1.0.0.dat",
					ProductId: 1, UtcFileDate: day("2012-01-01"),
				},
				11: {
					Id: 11, Filename: "L0_20120102_v1.0.0.dat",
					ProductId: 1, UtcFileDate: day("2012-01-02"),
				},
				// file 12 has vanished from the catalog
			}, nil
		}

		e := echo.New()
		c, resp := httptestutil.Get(e, "/api/queue")

		testee := handlers.GetQueueHandler(queue, files)
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if resp.Code != http.StatusOK {
			t.Fatalf("status code: %d != %d", resp.Code, http.StatusOK)
		}

		actual := status.Queue{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}

		expected := status.Queue{
			Length: 3,
			Entries: []status.QueueEntry{
				{FileId: 10, Filename: "L0_20120101_v1.0.0.dat", ProductId: 1, UtcFileDate: "2012-01-01", Bump: "none"},
				{FileId: 11, Filename: "L0_20120102_v1.0.0.dat", ProductId: 1, UtcFileDate: "2012-01-02", Bump: "quality"},
				{FileId: 12, Bump: "none"},
			},
		}
		if actual.Length != expected.Length {
			t.Errorf("length: %d != %d", actual.Length, expected.Length)
		}
		if len(actual.Entries) != len(expected.Entries) {
			t.Fatalf("entries: %+v != %+v", actual.Entries, expected.Entries)
		}
		for nth := range expected.Entries {
			if actual.Entries[nth] != expected.Entries[nth] {
				t.Errorf(
					"entry #%d: (actual, expected) = (%+v, %+v)",
					nth, actual.Entries[nth], expected.Entries[nth],
				)
			}
		}
	})

	t.Run("it reports an empty queue as an empty list", func(t *testing.T) {
		queue := mockqueue.New()
		queue.Impl.Len = func(context.Context) (int, error) { return 0, nil }
		queue.Impl.Entries = func(context.Context, int) ([]domain.QueueEntry, error) {
			return nil, nil
		}
		files := mockfile.New()
		files.Impl.Get = func(context.Context, []int64) (map[int64]domain.File, error) {
			return map[int64]domain.File{}, nil
		}

		e := echo.New()
		c, resp := httptestutil.Get(e, "/api/queue")

		if err := handlers.GetQueueHandler(queue, files)(c); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		actual := status.Queue{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Length != 0 || len(actual.Entries) != 0 {
			t.Errorf("unexpected response: %+v", actual)
		}
	})

	t.Run("it responds 500 when the catalog errors", func(t *testing.T) {
		queue := mockqueue.New()
		queue.Impl.Len = func(context.Context) (int, error) {
			return 0, errors.New("fake error")
		}
		files := mockfile.New()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/queue")

		err := handlers.GetQueueHandler(queue, files)(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error type: %+v is not echo.HTTPError", err)
		} else if httperr.Code != http.StatusInternalServerError {
			t.Fatalf("status code: %d != %d", httperr.Code, http.StatusInternalServerError)
		}
	})
}

func TestGetSessionHandler(t *testing.T) {

	t.Run("it reports the currently processing session", func(t *testing.T) {
		started := time.Date(2012, 1, 1, 10, 30, 0, 0, time.UTC)

		logging := mocklogging.New()
		logging.Impl.CurrentSession = func(context.Context) (domain.Session, bool, error) {
			return domain.Session{
				Id: 1, SessionId: "f84d3c7e-0001-0002-0003-000000000004",
				CurrentlyProcessing: true,
				Pid:                 4242, Hostname: "archive-host", User: "pipeline",
				StartTime: started,
			}, true, nil
		}

		e := echo.New()
		c, resp := httptestutil.Get(e, "/api/session")

		if err := handlers.GetSessionHandler(logging)(c); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		actual := status.Session{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}

		if actual.SessionId != "f84d3c7e-0001-0002-0003-000000000004" {
			t.Errorf("sessionId: %s", actual.SessionId)
		}
		if !actual.Processing {
			t.Errorf("processing: should be true")
		}
		if actual.Pid != 4242 || actual.Hostname != "archive-host" || actual.User != "pipeline" {
			t.Errorf("unexpected session: %+v", actual)
		}
		if !actual.StartTime.Time().Equal(started) {
			t.Errorf("startTime: %s != %s", actual.StartTime.Time(), started)
		}
		if actual.StopTime != nil {
			t.Errorf("stopTime: should be omitted while running")
		}
	})

	t.Run("it responds 404 when no session holds the guard", func(t *testing.T) {
		logging := mocklogging.New()
		logging.Impl.CurrentSession = func(context.Context) (domain.Session, bool, error) {
			return domain.Session{}, false, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/session")

		err := handlers.GetSessionHandler(logging)(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error type: %+v is not echo.HTTPError", err)
		} else if httperr.Code != http.StatusNotFound {
			t.Fatalf("status code: %d != %d", httperr.Code, http.StatusNotFound)
		}
	})
}

func TestGetSessionsHandler(t *testing.T) {

	t.Run("it lists recent sessions newest first", func(t *testing.T) {
		logging := mocklogging.New()

		requested := 0
		logging.Impl.RecentSessions = func(_ context.Context, limit int) ([]domain.Session, error) {
			requested = limit
			return []domain.Session{
				{
					Id: 2, SessionId: "session-2",
					StartTime: time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC),
					StopTime:  time.Date(2012, 1, 2, 1, 0, 0, 0, time.UTC),
					Comment:   "normal exit",
				},
				{
					Id: 1, SessionId: "session-1",
					StartTime: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
					StopTime:  time.Date(2012, 1, 1, 1, 0, 0, 0, time.UTC),
				},
			}, nil
		}

		e := echo.New()
		c, resp := httptestutil.Get(e, "/api/sessions?limit=2")

		if err := handlers.GetSessionsHandler(logging)(c); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if requested != 2 {
			t.Errorf("limit: %d != 2", requested)
		}

		actual := []status.Session{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if len(actual) != 2 {
			t.Fatalf("sessions: %+v", actual)
		}
		if actual[0].SessionId != "session-2" || actual[1].SessionId != "session-1" {
			t.Errorf("ordering: %+v", actual)
		}
		if actual[0].StopTime == nil || actual[0].Comment != "normal exit" {
			t.Errorf("stopped session: %+v", actual[0])
		}
	})

	t.Run("it responds 400 for a bad limit", func(t *testing.T) {
		logging := mocklogging.New()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/sessions?limit=bogus")

		err := handlers.GetSessionsHandler(logging)(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error type: %+v is not echo.HTTPError", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Fatalf("status code: %d != %d", httperr.Code, http.StatusBadRequest)
		}
	})
}

func TestGetFileTracebackHandler(t *testing.T) {

	t.Run("it reports the full ancestry of a file", func(t *testing.T) {
		files := mockfile.New()
		files.Impl.Traceback = func(_ context.Context, fileId int64) (domain.FileTraceback, error) {
			if fileId != 42 {
				t.Errorf("file id: %d != 42", fileId)
			}
			return domain.FileTraceback{
				File: domain.File{
					Id: 42, Filename: "L1_20120101_v1.2.0.dat",
					UtcFileDate:   time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
					UtcStartTime:  time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
					UtcStopTime:   time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC),
					Version:       domain.Version{Interface: 1, Quality: 2, Revision: 0},
					NewestVersion: true,
					ExistsOnDisk:  true,
				},
				Traceback: domain.Traceback{
					Mission:    domain.Mission{Id: 1, Name: "themis"},
					Satellite:  domain.Satellite{Id: 2, Name: "themis-a"},
					Instrument: domain.Instrument{Id: 3, Name: "fgm"},
					Product:    domain.Product{Id: 4, Name: "fgm-l1"},
					Inspector: domain.Inspector{
						Id: 5, Filename: "inspect_l1.sh",
						Version: domain.Version{Interface: 1, Quality: 0, Revision: 0},
					},
				},
			}, nil
		}

		e := echo.New()
		c, resp := httptestutil.Get(e, "/api/traceback/file/42")
		c.SetPath("/api/traceback/file/:id")
		c.SetParamNames("id")
		c.SetParamValues("42")

		if err := handlers.GetFileTracebackHandler(files)(c); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		actual := status.Traceback{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}

		if actual.File.Id != 42 || actual.File.Version != "1.2.0" || !actual.File.Newest {
			t.Errorf("file: %+v", actual.File)
		}
		if actual.Mission.Name != "themis" || actual.Satellite.Name != "themis-a" {
			t.Errorf("ancestry: %+v", actual)
		}
		if actual.Instrument.Name != "fgm" || actual.Product.Name != "fgm-l1" {
			t.Errorf("ancestry: %+v", actual)
		}
		if actual.Inspector == nil || actual.Inspector.Filename != "inspect_l1.sh" {
			t.Errorf("inspector: %+v", actual.Inspector)
		}
	})

	t.Run("it responds 404 for an unknown file", func(t *testing.T) {
		files := mockfile.New()
		files.Impl.Traceback = func(context.Context, int64) (domain.FileTraceback, error) {
			return domain.FileTraceback{}, kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/traceback/file/999")
		c.SetPath("/api/traceback/file/:id")
		c.SetParamNames("id")
		c.SetParamValues("999")

		err := handlers.GetFileTracebackHandler(files)(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error type: %+v is not echo.HTTPError", err)
		} else if httperr.Code != http.StatusNotFound {
			t.Fatalf("status code: %d != %d", httperr.Code, http.StatusNotFound)
		}
	})

	t.Run("it responds 400 for a non-numeric id", func(t *testing.T) {
		files := mockfile.New()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/traceback/file/bogus")
		c.SetPath("/api/traceback/file/:id")
		c.SetParamNames("id")
		c.SetParamValues("bogus")

		err := handlers.GetFileTracebackHandler(files)(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error type: %+v is not echo.HTTPError", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Fatalf("status code: %d != %d", httperr.Code, http.StatusBadRequest)
		}
	})
}
