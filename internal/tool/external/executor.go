package external

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTimeout bounds a single external tool run.
const DefaultTimeout = 30 * time.Second

// CommandRunner creates commands, allowing tests to replace process execution.
type CommandRunner interface {
	CommandContext(ctx context.Context, name string, arg ...string) Command
}

// Command is the subset of exec.Cmd the executor uses.
type Command interface {
	StdoutPipe() (io.ReadCloser, error)
	StderrPipe() (io.ReadCloser, error)
	SetStdin(io.Reader)
	Start() error
	Wait() error
}

type execCommand struct {
	*exec.Cmd
}

func (e *execCommand) SetStdin(r io.Reader) {
	e.Stdin = r
}

// Interface guard for execCommand
var _ Command = &execCommand{}

type execCommandRunner struct{}

func (execCommandRunner) CommandContext(ctx context.Context, name string, arg ...string) Command {
	return &execCommand{Cmd: exec.CommandContext(ctx, name, arg...)}
}

// Interface guard for execCommandRunner
var _ CommandRunner = execCommandRunner{}

// ExecutionResult is the captured outcome of a run.
type ExecutionResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Executor runs discovered entries as child processes.
type Executor struct {
	timeout time.Duration
	clock   clockwork.Clock
	runner  CommandRunner
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the clock used for the run timeout.
func WithClock(clock clockwork.Clock) ExecutorOption {
	return func(e *Executor) { e.clock = clock }
}

// WithCommandRunner replaces process creation.
func WithCommandRunner(runner CommandRunner) ExecutorOption {
	return func(e *Executor) { e.runner = runner }
}

// NewExecutor creates an executor. A non-positive timeout uses DefaultTimeout.
func NewExecutor(timeout time.Duration, opts ...ExecutorOption) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Executor{
		timeout: timeout,
		clock:   clockwork.NewRealClock(),
		runner:  execCommandRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the per-run timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs entry with args, feeding stdin when it is non-empty. A
// non-zero exit status is reported in the result, not as an error.
func (e *Executor) Execute(ctx context.Context, entry Entry, args []string, stdin string) (*ExecutionResult, error) {
	execCtx, cancel := clockwork.WithTimeout(ctx, e.clock, e.timeout)
	defer cancel()

	var cmd Command
	if entry.Interpreter != "" {
		cmdArgs := make([]string, 0, len(entry.InterpreterArgs)+1+len(args))
		cmdArgs = append(cmdArgs, entry.InterpreterArgs...)
		cmdArgs = append(cmdArgs, entry.Path)
		cmdArgs = append(cmdArgs, args...)
		cmd = e.runner.CommandContext(execCtx, entry.Interpreter, cmdArgs...)
	} else {
		cmd = e.runner.CommandContext(execCtx, entry.Path, args...)
	}

	if stdin != "" {
		cmd.SetStdin(strings.NewReader(stdin))
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	var stdoutBuf, stderrBuf strings.Builder
	done := make(chan error, 2)
	go func() {
		_, copyErr := io.Copy(&stdoutBuf, stdout)
		done <- copyErr
	}()
	go func() {
		_, copyErr := io.Copy(&stderrBuf, stderr)
		done <- copyErr
	}()
	<-done
	<-done

	waitErr := cmd.Wait()

	if ctxErr := execCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("tool execution timed out after %v", e.timeout)
		}
		return nil, ctxErr
	}

	result := &ExecutionResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", entry.Name, waitErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	return result, nil
}
