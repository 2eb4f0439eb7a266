package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurakai/genesis/internal/tool"
	"github.com/google/uuid"
)

// flashEstimateMs is the estimated duration reported for a pending flash.
const flashEstimateMs = 300000

func kaiTools() []*tool.Tool {
	return []*tool.Tool{
		{
			Name:              "manage_lsposed_hook",
			Description:       "Manage LSPosed/Xposed hooks. Enable, disable, or configure system hooks for deep customization.",
			Version:           "1.0.0",
			Category:          tool.CategorySecurity,
			AuthorizedCallers: tool.Callers(callers(CallerKai, CallerGenesis)...),
			InputSchema: tool.NewInputSchema([]string{"hook_name", "action"},
				tool.Prop("hook_name", "string", "Name of the hook to manage (e.g., 'NotchBarHooker', 'StatusBarHook')"),
				tool.Prop("action", "string", "Action to perform").WithEnum("enable", "disable", "configure", "status"),
				tool.Prop("target_package", "string", "Target package name to hook").WithDefault("com.android.systemui"),
				tool.Prop("priority", "number", "Hook priority (0-100, higher = runs first)").WithDefault("50"),
			),
			Execute: manageLSPosedHook,
		},
		{
			Name:              "flash_rom",
			Description:       "Flash a ROM image to a device partition. Requires unlocked bootloader and root.",
			Version:           "1.0.0",
			Category:          tool.CategoryROMTools,
			AuthorizedCallers: tool.Callers(callers(CallerKai)...),
			InputSchema: tool.NewInputSchema([]string{"rom_path", "partition"},
				tool.Prop("rom_path", "string", "Path to ROM image file"),
				tool.Prop("partition", "string", "Target partition to flash").
					WithEnum("boot", "system", "vendor", "recovery", "vbmeta", "dtbo"),
				tool.Prop("verify", "boolean", "Verify flash integrity after flashing").WithDefault("true"),
				tool.Prop("backup_before_flash", "boolean", "Create backup before flashing").WithDefault("true"),
			),
			Execute: flashROM,
		},
		{
			Name:              "analyze_security_threat",
			Description:       "Analyze a potential security threat, vulnerability, or suspicious activity.",
			Version:           "1.0.0",
			Category:          tool.CategorySecurity,
			AuthorizedCallers: tool.Callers(callers(CallerKai, CallerCascade)...),
			InputSchema: tool.NewInputSchema([]string{"threat_type", "evidence"},
				tool.Prop("threat_type", "string", "Type of threat to analyze").
					WithEnum("malware", "phishing", "root_exploit", "permission_abuse", "network_attack"),
				tool.Prop("evidence", "string", "Evidence or description of the threat"),
				tool.Prop("severity", "string", "Threat severity level").
					WithEnum("low", "medium", "high", "critical").WithDefault("medium"),
			),
			Execute: analyzeSecurityThreat,
		},
		{
			Name:              "manage_bootloader",
			Description:       "Check bootloader status and perform bootloader operations.",
			Version:           "1.0.0",
			Category:          tool.CategoryBootloader,
			AuthorizedCallers: tool.Callers(callers(CallerKai)...),
			InputSchema: tool.NewInputSchema([]string{"action"},
				tool.Prop("action", "string", "Bootloader operation").WithEnum("check_status", "unlock", "lock", "get_info"),
				tool.Prop("force", "boolean", "Skip safety confirmation").WithDefault("false"),
			),
			Execute: manageBootloader,
		},
		{
			Name:              "view_system_logs",
			Description:       "View system logs for debugging and monitoring.",
			Version:           "1.0.0",
			Category:          tool.CategorySecurity,
			AuthorizedCallers: tool.Callers(callers(CallerKai, CallerCascade, CallerGenesis, CallerClaude)...),
			InputSchema: tool.NewInputSchema([]string{"log_type"},
				tool.Prop("log_type", "string", "Log source").WithEnum("logcat", "kernel", "crash", "system", "all"),
				tool.Prop("filter", "string", "Only lines containing this text"),
				tool.Prop("lines", "number", "Number of lines to return").WithDefault("100"),
			),
			Execute: viewSystemLogs,
		},
	}
}

func manageLSPosedHook(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	hookName := stringParam(params, "hook_name")
	action := stringParam(params, "action")
	target := stringParam(params, "target_package")
	priority := intParam(params, "priority", 50)

	var output string
	switch action {
	case "enable":
		output = fmt.Sprintf("Hook '%s' enabled for %s (priority: %d)", hookName, target, priority)
	case "disable":
		output = fmt.Sprintf("Hook '%s' disabled for %s", hookName, target)
	case "configure":
		output = fmt.Sprintf("Hook '%s' configuration updated", hookName)
	case "status":
		output = fmt.Sprintf("Hook '%s' status: ACTIVE, target: %s, priority: %d", hookName, target, priority)
	default:
		return tool.Failure{Error: fmt.Sprintf("invalid action: %s", action), Code: tool.CodeInvalidParams}, nil
	}

	return tool.Success{
		Output: output,
		Metadata: map[string]any{
			"hook_name":      hookName,
			"action":         action,
			"target_package": target,
			"priority":       priority,
		},
	}, nil
}

func flashROM(_ context.Context, _ map[string]any, _ string) (tool.Result, error) {
	return tool.Pending{
		TaskID:              "flash_" + uuid.NewString(),
		EstimatedDurationMs: flashEstimateMs,
	}, nil
}

func analyzeSecurityThreat(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	threatType := stringParam(params, "threat_type")
	severity := stringParam(params, "severity")
	evidence := stringParam(params, "evidence")

	report := strings.Join([]string{
		"Threat Analysis Report:",
		"- Type: " + threatType,
		"- Severity: " + severity,
		"- Evidence: " + evidence,
		"- Recommended Action: Further investigation required",
	}, "\n")

	return tool.Success{
		Output: report,
		Metadata: map[string]any{
			"threat_type":     threatType,
			"severity":        severity,
			"requires_action": severity == "high" || severity == "critical",
		},
	}, nil
}

func manageBootloader(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	action := stringParam(params, "action")
	force := boolParam(params, "force", false)

	switch action {
	case "check_status", "get_info":
		return tool.Success{
			Output:   "Bootloader status: UNLOCKED",
			Metadata: map[string]any{"action": action, "unlocked": true},
		}, nil
	case "unlock", "lock":
		if !force {
			return tool.Failure{
				Error: fmt.Sprintf("bootloader %s requires force=true", action),
				Code:  tool.CodeInvalidParams,
			}, nil
		}
		return tool.Pending{TaskID: "bootloader_" + uuid.NewString(), EstimatedDurationMs: 60000}, nil
	default:
		return tool.Failure{Error: fmt.Sprintf("invalid action: %s", action), Code: tool.CodeInvalidParams}, nil
	}
}

func viewSystemLogs(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	logType := stringParam(params, "log_type")
	lines := intParam(params, "lines", 100)
	filter := stringParam(params, "filter")

	output := fmt.Sprintf("Showing last %d lines of %s logs", lines, logType)
	if filter != "" {
		output += fmt.Sprintf(" matching '%s'", filter)
	}

	return tool.Success{
		Output:   output,
		Metadata: map[string]any{"log_type": logType, "lines": lines},
	}, nil
}
