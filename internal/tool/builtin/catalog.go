// Package builtin provides the stock tool catalog for the Genesis workers.
// Tools describe device operations at the interface level only; their bodies
// report what they would do without touching the device.
package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aurakai/genesis/internal/tool"
	"go.uber.org/zap"
)

// Canonical caller ids. Authorization is case sensitive, so the stock
// catalog accepts both spellings of each worker.
const (
	CallerGenesis     = "genesis"
	CallerKai         = "kai"
	CallerAura        = "aura"
	CallerCascade     = "cascade"
	CallerOracleDrive = "oracledrive"
	CallerClaude      = "claude"
)

func callers(ids ...string) []string {
	out := make([]string, 0, len(ids)*2)
	for _, id := range ids {
		out = append(out, id, strings.ToUpper(id))
	}
	return out
}

// Catalog returns fresh copies of every built-in tool.
func Catalog() []*tool.Tool {
	var tools []*tool.Tool
	tools = append(tools, auraTools()...)
	tools = append(tools, kaiTools()...)
	tools = append(tools, genesisTools()...)
	tools = append(tools, cascadeTools()...)
	tools = append(tools, oracleDriveTools()...)
	return tools
}

// RegisterAll registers the catalog with reg, replacing the authorized caller
// lists named in overrides (tool name to caller ids).
func RegisterAll(reg *tool.Registry, overrides map[string][]string) {
	for _, t := range ApplyAuthorizations(Catalog(), overrides) {
		reg.Register(t)
	}
}

// ApplyAuthorizations returns tools with the caller lists in overrides applied.
// Overrides naming unknown tools are logged and ignored.
func ApplyAuthorizations(tools []*tool.Tool, overrides map[string][]string) []*tool.Tool {
	if len(overrides) == 0 {
		return tools
	}

	known := make(map[string]struct{}, len(tools))
	out := make([]*tool.Tool, len(tools))
	for i, t := range tools {
		known[t.Name] = struct{}{}
		if ids, ok := overrides[t.Name]; ok {
			zap.L().Info("Overriding tool authorization",
				zap.String("tool", t.Name),
				zap.Strings("callers", ids))
			out[i] = t.WithCallers(ids...)
			continue
		}
		out[i] = t
	}

	for name := range overrides {
		if _, ok := known[name]; !ok {
			zap.L().Warn("Authorization override for unknown tool", zap.String("tool", name))
		}
	}
	return out
}

func stringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func boolParam(params map[string]any, key string, fallback bool) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func intParam(params map[string]any, key string, fallback int64) int64 {
	switch v := params[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func stringsParam(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return nil
}
