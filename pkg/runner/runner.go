// Package runner executes build descriptors.
//
// Each build gets a scratch directory, the process's code runs there as a
// subprocess, and the produced output is handed to the ingest pipeline via
// incoming/. Lineage and session audit rows are recorded once the output is
// catalogued.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/opensdc/dbflow/pkg/domain"
	filedb "github.com/opensdc/dbflow/pkg/domain/file/db"
	loggingdb "github.com/opensdc/dbflow/pkg/domain/logging/db"
	"github.com/opensdc/dbflow/pkg/filename"
	"github.com/opensdc/dbflow/pkg/ingest"
	"github.com/opensdc/dbflow/pkg/resolve"
)

// BuildError flags a code execution that failed or produced no output.
type BuildError struct {
	Code   string
	Err    error
	Stdout string
	Stderr string
}

func (e BuildError) Error() string {
	return fmt.Sprintf("build with %s failed: %v (stdout: %q, stderr: %q)", e.Code, e.Err, e.Stdout, e.Stderr)
}

func (e BuildError) Unwrap() error {
	return e.Err
}

// Result tallies one pass over a batch of builds.
type Result struct {
	Done    []int64
	Failed  []string
	Skipped int
}

// Runner executes builds against the archive.
type Runner struct {
	mission  domain.Mission
	pipeline *ingest.Pipeline
	files    filedb.Interface
	logging  loggingdb.Interface

	// catalog id of the running session; 0 suppresses audit rows.
	sessionId int64

	// parent of per-build scratch directories. Empty means os.TempDir().
	ScratchRoot string

	logger *log.Logger
}

func New(
	mission domain.Mission,
	pipeline *ingest.Pipeline,
	files filedb.Interface,
	logging loggingdb.Interface,
	sessionId int64,
	logger *log.Logger,
) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		mission:   mission,
		pipeline:  pipeline,
		files:     files,
		logging:   logging,
		sessionId: sessionId,
		logger:    logger,
	}
}

// RunAll executes a batch of builds, continuing past failures.
//
// Non-ready builds count as skipped. Each failure is logged with the output
// name it was after.
func (r *Runner) RunAll(ctx context.Context, builds []resolve.Build) (Result, error) {
	result := Result{}
	for _, build := range builds {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if build.State != resolve.StateReady {
			result.Skipped += 1
			continue
		}
		fileId, err := r.Run(ctx, build)
		if err != nil {
			r.logger.Printf("build of %s failed: %v", build.OutputFilename, err)
			result.Failed = append(result.Failed, build.OutputFilename)
			continue
		}
		result.Done = append(result.Done, fileId)
	}
	return result, nil
}

// Run executes one build and returns the id of the catalogued output.
func (r *Runner) Run(ctx context.Context, build resolve.Build) (int64, error) {
	codePath := r.codePath(build.Code)
	if _, err := os.Stat(codePath); err != nil {
		return 0, fmt.Errorf("code of process %s: %w", build.Process.Name, err)
	}

	scratch := filepath.Join(r.scratchRoot(), "dbflow-build-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return 0, err
	}
	defer os.RemoveAll(scratch)

	outputPath := filepath.Join(scratch, build.OutputFilename)
	inputPaths, err := r.inputPaths(build.Inputs)
	if err != nil {
		return 0, err
	}

	argv, err := r.renderArguments(build, inputPaths, outputPath)
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, codePath, argv...)
	cmd.Dir = scratch
	stdout, stderr := bytes.Buffer{}, bytes.Buffer{}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil || stderr.Len() > 0 {
		r.logger.Printf(
			"%s %s: err=%v stdout=%q stderr=%q",
			codePath, strings.Join(argv, " "), runErr, stdout.String(), stderr.String(),
		)
	}

	// the run counts iff the output was written, whatever the exit status
	if _, err := os.Stat(outputPath); err != nil {
		return 0, BuildError{
			Code:   codePath,
			Err:    fmt.Errorf("no output produced: %w", runErr),
			Stdout: stdout.String(),
			Stderr: stderr.String(),
		}
	}

	incomingPath := filepath.Join(r.mission.IncomingDir(), build.OutputFilename)
	if err := os.MkdirAll(r.mission.IncomingDir(), 0o755); err != nil {
		return 0, err
	}
	if err := os.Rename(outputPath, incomingPath); err != nil {
		return 0, err
	}

	fileId, err := r.pipeline.One(ctx, incomingPath)
	if err != nil {
		r.toErrors(incomingPath)
		return 0, fmt.Errorf("ingest of %s: %w", build.OutputFilename, err)
	}

	sourceIds := make([]int64, 0, len(build.Inputs))
	for _, input := range build.Inputs {
		sourceIds = append(sourceIds, input.Id)
	}
	if err := r.files.RecordLineage(ctx, fileId, sourceIds, build.Code.Id); err != nil {
		return 0, err
	}

	if r.sessionId != 0 {
		record := domain.SessionFile{
			SessionId: r.sessionId,
			FileId:    fileId,
			CodeId:    build.Code.Id,
			Comment:   "built by " + build.Process.Name,
		}
		if err := r.logging.AddSessionFile(ctx, record); err != nil {
			return 0, err
		}
	}
	return fileId, nil
}

func (r *Runner) scratchRoot() string {
	if r.ScratchRoot != "" {
		return r.ScratchRoot
	}
	return os.TempDir()
}

func (r *Runner) codePath(code domain.Code) string {
	rel := filepath.Join(code.RelativePath, code.Filename)
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(r.mission.CodeDir(), rel)
}

func (r *Runner) inputPaths(inputs []domain.File) ([]string, error) {
	paths := make([]string, 0, len(inputs))
	for _, input := range inputs {
		path, err := r.pipeline.Destination(input)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// renderArguments materializes the command line of a build.
//
// code.Arguments splits on whitespace; each word is token-substituted with a
// binding of input product ids to their paths, OUTPUT to the scratch output
// path, the build date and the mission rootdir. Input paths and the output
// path follow as positional arguments.
func (r *Runner) renderArguments(build resolve.Build, inputPaths []string, outputPath string) ([]string, error) {
	fields := map[string]string{"OUTPUT": outputPath}
	for nth, input := range build.Inputs {
		key := strconv.FormatInt(input.ProductId, 10)
		if prior, ok := fields[key]; ok {
			fields[key] = prior + " " + inputPaths[nth]
		} else {
			fields[key] = inputPaths[nth]
		}
	}

	ctx := filename.Context{
		Mission: r.mission.Name,
		Product: build.OutputProduct.Name,
		Level:   fmt.Sprintf("%g", build.OutputProduct.Level),
		RootDir: r.mission.Rootdir,
		Date:    build.UtcFileDate,
		Version: build.Version,
		Fields:  fields,
	}

	argv := []string{}
	for _, word := range strings.Fields(build.Code.Arguments) {
		rendered, err := filename.Format(word, ctx)
		if err != nil {
			return nil, err
		}
		argv = append(argv, rendered)
	}
	argv = append(argv, inputPaths...)
	argv = append(argv, outputPath)
	return argv, nil
}

func (r *Runner) toErrors(path string) {
	errorDir := r.mission.ErrorDir()
	if err := os.MkdirAll(errorDir, 0o755); err != nil {
		return
	}
	os.Rename(path, filepath.Join(errorDir, filepath.Base(path)))
}
