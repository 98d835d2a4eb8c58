package domain

import "path/filepath"

// Mission is a named archive: the root of the entity tree.
//
// One mission per catalog is the supported case.
type Mission struct {
	Id       int64
	Name     string
	Rootdir  string
	Incoming string
}

// IncomingDir is the absolute path where producers drop new files.
func (m *Mission) IncomingDir() string {
	return m.join(m.Incoming)
}

// ErrorDir is the absolute path where unclassifiable or failed files land.
func (m *Mission) ErrorDir() string {
	return m.join("errors")
}

// CodeDir anchors the relative paths of codes and inspectors.
func (m *Mission) CodeDir() string {
	return m.join("codes")
}

func (m *Mission) join(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Rootdir, rel)
}

func (m *Mission) Equal(other *Mission) bool {
	if m == nil || other == nil {
		return m == nil && other == nil
	}
	return m.Id == other.Id &&
		m.Name == other.Name &&
		m.Rootdir == other.Rootdir &&
		m.Incoming == other.Incoming
}

// Satellite belongs to a mission; unique by (name, mission).
type Satellite struct {
	Id        int64
	Name      string
	MissionId int64
}

// Instrument belongs to a satellite; unique by (name, satellite).
type Instrument struct {
	Id          int64
	Name        string
	SatelliteId int64
}

// Product is a typed family of files.
type Product struct {
	Id           int64
	Name         string
	InstrumentId int64

	// directory under the mission rootdir where files of this product live.
	// May contain filename tokens expanded per file.
	RelativePath string

	// filename template. Expanded it names new files; read as a regex it
	// recognizes existing ones.
	Format string

	// numeric tier, used for display and grouping only.
	Level float64

	Description string
}

func (p *Product) Equal(other *Product) bool {
	if p == nil || other == nil {
		return p == nil && other == nil
	}
	return p.Id == other.Id &&
		p.Name == other.Name &&
		p.InstrumentId == other.InstrumentId &&
		p.RelativePath == other.RelativePath &&
		p.Format == other.Format &&
		p.Level == other.Level
}

// Inspector is a registered classifier plug-in bound to one product.
type Inspector struct {
	Id           int64
	Filename     string
	RelativePath string
	Description  string
	ProductId    int64
	Version      Version
	Active       bool
	Arguments    string
	DateWritten  string

	// interface version of the DiskFile records this inspector emits.
	OutputInterfaceVersion int

	NewestVersion bool
}

// Traceback is the full ancestry of a product or file.
type Traceback struct {
	Mission    Mission
	Satellite  Satellite
	Instrument Instrument
	Product    Product
	Inspector  Inspector
}

// ProcessTraceback is the ancestry of a process: its code and inputs.
type ProcessTraceback struct {
	Process Process
	Code    Code
	Inputs  []ProductProcessLink
}
