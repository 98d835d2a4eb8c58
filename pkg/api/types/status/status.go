// Package status holds the JSON shapes of the daemon's status API.
package status

import (
	"github.com/opensdc/dbflow/pkg/domain"
	"github.com/opensdc/dbflow/pkg/utils/rfctime"
)

// QueueEntry is one position of the process queue, joined with its file.
type QueueEntry struct {
	FileId int64 `json:"fileId"`

	// empty when the file row has vanished since the entry was pushed.
	Filename    string `json:"filename,omitempty"`
	ProductId   int64  `json:"productId,omitempty"`
	UtcFileDate string `json:"utcFileDate,omitempty"`
	Bump        string `json:"bump"`
}

// Queue is the process queue as reported, head first.
type Queue struct {
	Length  int          `json:"length"`
	Entries []QueueEntry `json:"entries"`
}

func FromQueueEntry(entry domain.QueueEntry, file *domain.File) QueueEntry {
	rsp := QueueEntry{
		FileId: entry.FileId,
		Bump:   entry.Bump.String(),
	}
	if file != nil {
		rsp.Filename = file.Filename
		rsp.ProductId = file.ProductId
		rsp.UtcFileDate = file.UtcFileDate.Format("2006-01-02")
	}
	return rsp
}

// Session is one processing session audit row.
type Session struct {
	SessionId  string          `json:"sessionId"`
	Processing bool            `json:"processing"`
	Pid        int             `json:"pid"`
	Hostname   string          `json:"hostname"`
	User       string          `json:"user"`
	StartTime  rfctime.RFC3339 `json:"startTime"`

	// omitted while the session is still running.
	StopTime *rfctime.RFC3339 `json:"stopTime,omitempty"`
	Comment  string           `json:"comment,omitempty"`
}

func FromSession(session domain.Session) Session {
	rsp := Session{
		SessionId:  session.SessionId,
		Processing: session.CurrentlyProcessing,
		Pid:        session.Pid,
		Hostname:   session.Hostname,
		User:       session.User,
		StartTime:  rfctime.RFC3339(session.StartTime),
		Comment:    session.Comment,
	}
	if !session.StopTime.IsZero() {
		stop := rfctime.RFC3339(session.StopTime)
		rsp.StopTime = &stop
	}
	return rsp
}

// Traceback is a file with its full product ancestry.
type Traceback struct {
	File       File       `json:"file"`
	Mission    NamedId    `json:"mission"`
	Satellite  NamedId    `json:"satellite"`
	Instrument NamedId    `json:"instrument"`
	Product    NamedId    `json:"product"`
	Inspector  *Inspector `json:"inspector,omitempty"`
}

type NamedId struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}

type Inspector struct {
	Id       int64  `json:"id"`
	Filename string `json:"filename"`
	Version  string `json:"version"`
}

type File struct {
	Id           int64           `json:"id"`
	Filename     string          `json:"filename"`
	UtcFileDate  string          `json:"utcFileDate"`
	UtcStartTime rfctime.RFC3339 `json:"utcStartTime"`
	UtcStopTime  rfctime.RFC3339 `json:"utcStopTime"`
	Version      string          `json:"version"`
	Newest       bool            `json:"newest"`
	ExistsOnDisk bool            `json:"existsOnDisk"`
}

func FromTraceback(tb domain.FileTraceback) Traceback {
	rsp := Traceback{
		File: File{
			Id:           tb.File.Id,
			Filename:     tb.File.Filename,
			UtcFileDate:  tb.File.UtcFileDate.Format("2006-01-02"),
			UtcStartTime: rfctime.RFC3339(tb.File.UtcStartTime),
			UtcStopTime:  rfctime.RFC3339(tb.File.UtcStopTime),
			Version:      tb.File.Version.String(),
			Newest:       tb.File.NewestVersion,
			ExistsOnDisk: tb.File.ExistsOnDisk,
		},
		Mission:    NamedId{Id: tb.Mission.Id, Name: tb.Mission.Name},
		Satellite:  NamedId{Id: tb.Satellite.Id, Name: tb.Satellite.Name},
		Instrument: NamedId{Id: tb.Instrument.Id, Name: tb.Instrument.Name},
		Product:    NamedId{Id: tb.Product.Id, Name: tb.Product.Name},
	}
	if tb.Inspector.Id != 0 {
		rsp.Inspector = &Inspector{
			Id:       tb.Inspector.Id,
			Filename: tb.Inspector.Filename,
			Version:  tb.Inspector.Version.String(),
		}
	}
	return rsp
}
