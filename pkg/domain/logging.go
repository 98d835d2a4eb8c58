package domain

import "time"

// Session is one audit row per processing session.
type Session struct {
	Id int64

	// uuid assigned when the session starts.
	SessionId string

	CurrentlyProcessing bool
	Pid                 int
	Hostname            string
	User                string
	MissionId           int64

	StartTime time.Time
	StopTime  time.Time

	Comment string
}

// SessionFile ties a file outcome to a session and the code that touched it.
type SessionFile struct {
	Id        int64
	SessionId int64
	FileId    int64
	CodeId    int64
	Comment   string
}

// Release tags a snapshot of newest files under a release number.
type Release struct {
	FileId     int64
	ReleaseNum int
}
