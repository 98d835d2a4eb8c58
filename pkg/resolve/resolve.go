// Package resolve turns a catalogued file into the builds it should trigger.
//
// Given a trigger file, the resolver walks the processes consuming the file's
// product, enumerates the build dates the file touches at each process's
// output timebase, gathers newest-version inputs per declared link, and
// decides the output version. The result is a list of build descriptors for
// the runner.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
	domerr "github.com/opensdc/dbflow/pkg/domain/errors"
	filedb "github.com/opensdc/dbflow/pkg/domain/file/db"
	processdb "github.com/opensdc/dbflow/pkg/domain/process/db"
	"github.com/opensdc/dbflow/pkg/filename"
)

// State is the lifecycle phase of a build descriptor.
type State string

const (
	StateNew      State = "NEW"
	StateReady    State = "READY"
	StateRunning  State = "RUNNING"
	StateDone     State = "DONE"
	StateFailed   State = "FAILED"
	StateUpToDate State = "UP_TO_DATE"
)

// Build is everything the runner needs to produce one output file.
type Build struct {
	Process       domain.Process
	Code          domain.Code
	OutputProduct domain.Product

	// the build date at the grain of the process's output timebase.
	UtcFileDate time.Time

	// newest-version inputs, in declared link order.
	Inputs []domain.File

	OutputFilename string
	Version        domain.Version

	State State
}

// FilenameError flags a generated filename that does not parse back to the
// product it was generated for.
type FilenameError struct {
	Filename string
	Product  string
}

func (e FilenameError) Error() string {
	return fmt.Sprintf("filename %q does not round-trip through the format of product %q", e.Filename, e.Product)
}

// Resolver computes build descriptors against the catalog.
type Resolver struct {
	mission   domain.Mission
	files     filedb.Interface
	processes processdb.Interface
	products  map[int64]domain.Product

	// rebuild when only the code changed since the existing output.
	// Off, a code-only change leaves the output as is.
	UpdateOnCodeChange bool
}

func New(
	mission domain.Mission,
	files filedb.Interface,
	processes processdb.Interface,
	products map[int64]domain.Product,
) *Resolver {
	return &Resolver{
		mission:   mission,
		files:     files,
		processes: processes,
		products:  products,
	}
}

// ForFile resolves the builds a trigger file calls for.
//
// bump, when not BumpNone, forces the version component incremented on
// outputs that already exist. Descriptors come back deduplicated per
// (process, build date); up-to-date pairs are emitted with StateUpToDate so
// callers can count skips.
func (r *Resolver) ForFile(ctx context.Context, trigger domain.File, bump domain.VersionBump) ([]Build, error) {
	children, err := r.processes.ChildrenOfProduct(ctx, trigger.ProductId)
	if err != nil {
		return nil, err
	}

	builds := []Build{}
	type pair struct {
		processId int64
		date      time.Time
	}
	seen := map[pair]bool{}

	for _, process := range children {
		if process.OutputTimebase == domain.TimebaseStartup {
			continue
		}

		code, err := r.processes.NewestCode(ctx, process.Id)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				continue
			}
			return nil, err
		}

		for _, date := range buildDates(process.OutputTimebase, trigger) {
			if seen[pair{process.Id, date}] {
				continue
			}
			seen[pair{process.Id, date}] = true

			if !code.AppliesTo(date) {
				continue
			}

			build, ready, err := r.resolve(ctx, process, code, date, &trigger, bump)
			if err != nil {
				return nil, err
			}
			if ready {
				builds = append(builds, build)
			}
		}
	}
	return builds, nil
}

// ForStartup resolves the builds of STARTUP-timebase processes, scheduled
// once per session with the given day as build date.
func (r *Resolver) ForStartup(ctx context.Context, day time.Time) ([]Build, error) {
	processes, err := r.processes.StartupProcesses(ctx)
	if err != nil {
		return nil, err
	}
	day = domain.TruncateDay(day)

	builds := []Build{}
	for _, process := range processes {
		code, err := r.processes.NewestCode(ctx, process.Id)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				continue
			}
			return nil, err
		}
		if !code.AppliesTo(day) {
			continue
		}
		build, ready, err := r.resolve(ctx, process, code, day, nil, domain.BumpNone)
		if err != nil {
			return nil, err
		}
		if ready {
			builds = append(builds, build)
		}
	}
	return builds, nil
}

// buildDates enumerates the build dates of a trigger file at a timebase.
//
// Yesterday/tomorrow windows widen input gathering, not the dates built; a
// file never triggers builds outside its own coverage.
func buildDates(tb domain.Timebase, trigger domain.File) []time.Time {
	switch tb {
	case domain.TimebaseRun:
		return []time.Time{domain.TruncateDay(trigger.UtcFileDate)}
	default:
		dates := []time.Time{}
		last := time.Time{}
		for _, day := range trigger.CoveredDays() {
			bucket := tb.Bucket(day)
			if bucket.Equal(last) {
				continue
			}
			last = bucket
			dates = append(dates, bucket)
		}
		return dates
	}
}

func (r *Resolver) resolve(
	ctx context.Context,
	process domain.Process,
	code domain.Code,
	date time.Time,
	trigger *domain.File,
	bump domain.VersionBump,
) (Build, bool, error) {
	inputs, ready, err := r.gatherInputs(ctx, process, date, trigger)
	if err != nil || !ready {
		return Build{}, false, err
	}

	outputProduct, ok := r.products[process.OutputProductId]
	if !ok {
		return Build{}, false, fmt.Errorf("%w: output product %d of process %s", domerr.ErrMissing, process.OutputProductId, process.Name)
	}

	version, state, err := r.decideVersion(ctx, process, code, date, inputs, bump)
	if err != nil {
		return Build{}, false, err
	}

	build := Build{
		Process:       process,
		Code:          code,
		OutputProduct: outputProduct,
		UtcFileDate:   date,
		Inputs:        inputs,
		Version:       version,
		State:         state,
	}
	if state == StateUpToDate {
		return build, true, nil
	}

	basename, err := r.outputFilename(outputProduct, date, version)
	if err != nil {
		return Build{}, false, err
	}
	build.OutputFilename = basename
	return build, true, nil
}

// gatherInputs collects newest-version candidates per input link.
//
// ready is false when a non-optional link has no candidate in its window.
func (r *Resolver) gatherInputs(
	ctx context.Context,
	process domain.Process,
	date time.Time,
	trigger *domain.File,
) ([]domain.File, bool, error) {
	if process.OutputTimebase == domain.TimebaseRun {
		// RUN consumes the trigger alone.
		if trigger == nil {
			return nil, false, nil
		}
		return []domain.File{*trigger}, true, nil
	}

	links, err := r.processes.InputsOf(ctx, process.Id)
	if err != nil {
		return nil, false, err
	}

	inputs := []domain.File{}
	for _, link := range links {
		// windows widen from the bucket edges
		first := date.AddDate(0, 0, -link.Yesterday)
		last := process.OutputTimebase.BucketEnd(date).AddDate(0, 0, link.Tomorrow)
		candidates, err := r.files.NewestInRange(ctx, link.InputProductId, first, last)
		if err != nil {
			return nil, false, err
		}

		if process.OutputTimebase == domain.TimebaseFile && trigger != nil {
			matched := []domain.File{}
			for _, c := range candidates {
				if c.ProcessKeywords == trigger.ProcessKeywords {
					matched = append(matched, c)
				}
			}
			candidates = matched
		}

		if len(candidates) == 0 {
			if link.Optional {
				continue
			}
			return nil, false, nil
		}
		inputs = append(inputs, candidates...)
	}

	if len(inputs) == 0 {
		return nil, false, nil
	}
	return inputs, true, nil
}

// decideVersion picks the version of the prospective output file.
//
// A brand-new output starts at (code interface, 0, 0). Over an existing
// output, a forced bump always increments; otherwise newer inputs bump the
// same component that changed on the inputs when the code is the one
// recorded in the output's lineage, and the quality when it is not.
// Nothing newer is StateUpToDate.
func (r *Resolver) decideVersion(
	ctx context.Context,
	process domain.Process,
	code domain.Code,
	date time.Time,
	inputs []domain.File,
	bump domain.VersionBump,
) (domain.Version, State, error) {
	existing, err := r.files.NewestByProductAndDate(ctx, process.OutputProductId, date)
	if err != nil {
		if !errors.Is(err, domerr.ErrMissing) {
			return domain.Version{}, "", err
		}
		version, err := domain.NewVersion(code.OutputInterfaceVersion, 0, 0)
		if err != nil {
			return domain.Version{}, "", err
		}
		return version, StateReady, nil
	}

	if bump != domain.BumpNone {
		return bump.Apply(existing.Version), StateReady, nil
	}

	lineage, err := r.files.Lineage(ctx, existing.Id)
	if err != nil {
		if !errors.Is(err, domerr.ErrMissing) {
			return domain.Version{}, "", err
		}
		// the existing output was ingested from outside; its inputs are
		// unknowable, so rebuild over it.
		return existing.Version.IncQuality(), StateReady, nil
	}

	inputsChanged := !sameFiles(lineage.Sources, inputs)
	codeChanged := lineage.Code.Id != code.Id

	switch {
	case inputsChanged && codeChanged:
		return existing.Version.IncQuality(), StateReady, nil
	case inputsChanged:
		return inputBump(lineage.Sources, inputs).Apply(existing.Version), StateReady, nil
	case codeChanged && r.UpdateOnCodeChange:
		return existing.Version.IncQuality(), StateReady, nil
	default:
		return existing.Version, StateUpToDate, nil
	}
}

// outputFilename renders and sanity-checks the prospective output basename.
func (r *Resolver) outputFilename(product domain.Product, date time.Time, version domain.Version) (string, error) {
	basename, err := filename.Format(product.Format, filename.Context{
		Mission: r.mission.Name,
		Product: product.Name,
		Level:   fmt.Sprintf("%g", product.Level),
		RootDir: r.mission.Rootdir,
		Date:    date,
		Version: version,
	})
	if err != nil {
		return "", err
	}

	parsed, ok, err := filename.Parse(product.Format, basename, filename.Context{Product: product.Name})
	if err != nil {
		return "", err
	}
	if !ok ||
		(parsed.HasDate && !parsed.Date.Equal(domain.TruncateDay(date))) ||
		(parsed.HasVersion && !parsed.Version.Equal(version)) {
		return "", FilenameError{Filename: basename, Product: product.Name}
	}
	return basename, nil
}

func sameFiles(as, bs []domain.File) bool {
	if len(as) != len(bs) {
		return false
	}
	ids := map[int64]bool{}
	for _, a := range as {
		ids[a.Id] = true
	}
	for _, b := range bs {
		if !ids[b.Id] {
			return false
		}
	}
	return true
}

// inputBump mirrors the strongest version change between the inputs of the
// last build and the current inputs. Inputs that appeared or vanished count
// as a quality change; interface outranks quality outranks revision.
func inputBump(previous, current []domain.File) domain.VersionBump {
	type slot struct {
		productId int64
		date      time.Time
	}
	was := map[slot]domain.Version{}
	for _, p := range previous {
		was[slot{p.ProductId, p.UtcFileDate}] = p.Version
	}

	bump := domain.BumpRevision
	stronger := func(b domain.VersionBump) {
		if b < bump {
			bump = b
		}
	}
	matched := map[slot]bool{}
	for _, c := range current {
		key := slot{c.ProductId, c.UtcFileDate}
		old, ok := was[key]
		if !ok {
			stronger(domain.BumpQuality)
			continue
		}
		matched[key] = true
		switch {
		case c.Version.Interface != old.Interface:
			stronger(domain.BumpInterface)
		case c.Version.Quality != old.Quality:
			stronger(domain.BumpQuality)
		}
	}
	if len(matched) < len(was) {
		stronger(domain.BumpQuality)
	}
	return bump
}
