package tool

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/aurakai/genesis/internal/core"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

// DefaultHistoryCapacity is the number of execution records kept by default.
const DefaultHistoryCapacity = 1000

// suggestionMaxDistance bounds the edit distance for "did you mean" hints.
const suggestionMaxDistance = 2

var validate = validator.New()

// Registry owns the tool catalog and the execution history. It is safe for
// concurrent use. Tool bodies run outside the lock.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*Tool
	history *history

	clock   clockwork.Clock
	metrics *Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithHistoryCapacity bounds the execution history.
func WithHistoryCapacity(n int) Option {
	return func(r *Registry) {
		r.history = newHistory(n)
	}
}

// WithClock sets the clock used to time executions.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithMetrics makes the registry report executions to m.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tools:   make(map[string]*Tool),
		history: newHistory(DefaultHistoryCapacity),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds t to the catalog, replacing any tool with the same name.
func (r *Registry) Register(t *Tool) {
	if t == nil || t.Name == "" {
		zap.L().Error("Refusing to register tool without a name")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tools[t.Name]; ok {
		zap.L().Warn("Overwriting existing tool",
			zap.String("tool", t.Name),
			zap.String("old_version", existing.Version),
			zap.String("new_version", t.Version),
			zap.Bool("downgrade", isDowngrade(existing.Version, t.Version)))
	}

	r.tools[t.Name] = t
	zap.L().Debug("Registered tool",
		zap.String("tool", t.Name),
		zap.String("category", t.Category.String()),
		zap.String("version", t.Version))
}

func isDowngrade(oldVersion, newVersion string) bool {
	o, n := "v"+strings.TrimPrefix(oldVersion, "v"), "v"+strings.TrimPrefix(newVersion, "v")
	if !semver.IsValid(o) || !semver.IsValid(n) {
		return false
	}
	return semver.Compare(n, o) < 0
}

// RegisterAll registers every tool in order.
func (r *Registry) RegisterAll(tools ...*Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Get returns the named tool.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns every tool sorted by name.
func (r *Registry) List() []*Tool {
	return r.filter(func(*Tool) bool { return true })
}

// ListForCaller returns the tools callerID may use, sorted by name.
func (r *Registry) ListForCaller(callerID string) []*Tool {
	return r.filter(func(t *Tool) bool { return t.IsAuthorized(callerID) })
}

// ListByCategory returns the tools in category, sorted by name.
func (r *Registry) ListByCategory(category Category) []*Tool {
	return r.filter(func(t *Tool) bool { return t.Category == category })
}

func (r *Registry) filter(keep func(*Tool) bool) []*Tool {
	r.mu.RLock()
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		if keep(t) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Tool) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs the requested tool. It never returns an error: every failure
// is encoded in the response, and every request is recorded in the history.
func (r *Registry) Execute(ctx context.Context, req Request) Response {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	start := r.clock.Now()
	result := r.run(ctx, req)
	duration := r.clock.Since(start)

	// An unencodable result is an execution failure, and is recorded as one.
	payload, err := MarshalResult(result)
	if err != nil {
		zap.L().Error("Failed to encode tool result",
			zap.String("tool", req.ToolName),
			zap.Error(err))
		result = Failure{Error: fmt.Sprintf("failed to encode result: %v", err), Code: CodeExecutionError}
		payload, _ = MarshalResult(result)
	}

	record := ExecutionRecord{
		ToolName:  req.ToolName,
		CallerID:  req.CallerID,
		RequestID: req.RequestID,
		Success:   result.Succeeded(),
		Duration:  duration,
		Timestamp: start,
	}
	var execErr error
	if f, ok := result.(Failure); ok {
		record.ErrorCode = f.Code
		execErr = fmt.Errorf("%s: %s", f.Code, f.Error)
	}

	r.mu.Lock()
	r.history.add(record)
	r.mu.Unlock()

	r.metrics.observe(req.ToolName, req.CallerID, outcomeOf(result), duration)
	core.LogToolExecution(req.ToolName, req.CallerID, duration, execErr)

	return Response{
		RequestID:       req.RequestID,
		Success:         record.Success,
		ResultJSON:      payload,
		ExecutionTimeMs: duration.Milliseconds(),
	}
}

func (r *Registry) run(ctx context.Context, req Request) Result {
	if err := validate.Struct(req); err != nil {
		return Failure{Error: fmt.Sprintf("invalid request: %v", err), Code: CodeInvalidParams}
	}

	t, ok := r.Get(req.ToolName)
	if !ok {
		msg := fmt.Sprintf("tool '%s' not found", req.ToolName)
		if suggestion := r.suggest(req.ToolName); suggestion != "" {
			msg = fmt.Sprintf("%s (did you mean '%s'?)", msg, suggestion)
		}
		return Failure{Error: msg, Code: CodeToolNotFound}
	}

	if !t.IsAuthorized(req.CallerID) {
		zap.L().Warn("Unauthorized tool access",
			zap.String("tool", t.Name),
			zap.String("caller", req.CallerID))
		return Failure{
			Error: fmt.Sprintf("caller '%s' is not authorized to use tool '%s'", req.CallerID, t.Name),
			Code:  CodeUnauthorized,
		}
	}

	params, err := t.InputSchema.Prepare(req.Params)
	if err != nil {
		return Failure{Error: err.Error(), Code: CodeInvalidParams}
	}

	return r.invoke(ctx, t, params, req.CallerID)
}

func (r *Registry) invoke(ctx context.Context, t *Tool, params map[string]any, callerID string) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			core.LogPanicRecovery("tool:"+t.Name, recovered)
			result = Failure{
				Error: fmt.Sprintf("panic during tool execution: %v", recovered),
				Code:  CodeExecutionError,
			}
		}
	}()

	if t.Execute == nil {
		return Failure{Error: fmt.Sprintf("tool '%s' has no implementation", t.Name), Code: CodeExecutionError}
	}

	res, err := t.Execute(ctx, params, callerID)
	if err != nil {
		return Failure{Error: err.Error(), Code: CodeExecutionError}
	}
	if res == nil {
		return Failure{Error: fmt.Sprintf("tool '%s' returned no result", t.Name), Code: CodeExecutionError}
	}
	return res
}

// suggest returns the registered name closest to name, or "" if none is close.
func (r *Registry) suggest(name string) string {
	bestTool := ""
	bestDistance := suggestionMaxDistance + 1
	nameLower := strings.ToLower(name)

	for _, t := range r.List() {
		distance := levenshtein.ComputeDistance(nameLower, strings.ToLower(t.Name))
		if distance < bestDistance {
			bestDistance = distance
			bestTool = t.Name
		}
	}
	return bestTool
}

func outcomeOf(result Result) string {
	switch v := result.(type) {
	case Failure:
		return strings.ToLower(string(v.Code))
	case Pending:
		return "pending"
	default:
		return "success"
	}
}

// History returns the retained execution records, oldest first.
func (r *Registry) History() []ExecutionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history.snapshot()
}

// Stats summarizes the catalog and the retained history.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalTools:      len(r.tools),
		ToolsByCategory: make(map[Category]int),
		PerToolCounts:   make(map[string]int),
		PerCallerCounts: make(map[string]int),
	}
	for _, t := range r.tools {
		stats.ToolsByCategory[t.Category]++
	}

	var totalDuration time.Duration
	for _, rec := range r.history.snapshot() {
		stats.Total++
		if rec.Success {
			stats.SuccessCount++
		} else {
			stats.FailureCount++
		}
		totalDuration += rec.Duration
		stats.PerToolCounts[rec.ToolName]++
		stats.PerCallerCounts[rec.CallerID]++
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.Total)
		stats.AvgDurationMs = float64(totalDuration.Milliseconds()) / float64(stats.Total)
	}
	return stats
}
