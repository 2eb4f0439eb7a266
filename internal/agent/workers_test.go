package agent_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aurakai/genesis/internal/agent"
	"github.com/aurakai/genesis/internal/bus"
	genesisTesting "github.com/aurakai/genesis/internal/testing"
	"github.com/aurakai/genesis/internal/tool"
	"github.com/aurakai/genesis/internal/tool/builtin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	bus      *genesisTesting.RecordingBus
	registry *tool.Registry
	engine   *genesisTesting.ScriptedEngine
}

func newFixture(t *testing.T, replies ...string) fixture {
	t.Helper()
	reg := tool.NewRegistry()
	builtin.RegisterAll(reg, nil)

	f := fixture{bus: genesisTesting.NewRecordingBus(), registry: reg}
	if len(replies) > 0 {
		f.engine = genesisTesting.NewScriptedEngine(genesisTesting.Texts(replies...)...)
	}
	t.Cleanup(f.bus.Close)
	return f
}

func (f fixture) deps() agent.Deps {
	d := agent.Deps{Bus: f.bus, Registry: f.registry}
	if f.engine != nil {
		d.Engine = f.engine
	}
	return d
}

func TestDefaults_Order(t *testing.T) {
	var names []string
	for _, a := range agent.Defaults(agent.Deps{}) {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"Cascade", "Kai", "Aura", "OracleDrive"}, names)
}

func TestDetectThreats(t *testing.T) {
	assert.Equal(t, []string{"javascript:", "<script"}, agent.DetectThreats(`<SCRIPT src="javascript:x">`))
	assert.Equal(t, []string{"eval(", "onclick="}, agent.DetectThreats(`eval(1) onClick=go()`))
	assert.Empty(t, agent.DetectThreats("everything is fine"))
}

func TestKai_AlertsOnUnsafePatterns(t *testing.T) {
	f := newFixture(t)
	kai := agent.NewKai(f.deps())

	msg := bus.NewMessage(bus.SenderUser, "Please validate this: <script>alert(1)</script>", bus.TypeText)
	require.NoError(t, kai.OnMessage(context.Background(), msg))

	sent := f.bus.Broadcasts()
	require.Len(t, sent, 1, "a threat only raises the alert")
	alert := sent[0]
	assert.Equal(t, "Kai", alert.From)
	assert.Equal(t, bus.TypeAlert, alert.Type)
	assert.Equal(t, agent.AlertPriority, alert.Priority)
	assert.Equal(t, "SECURITY ALERT: Unsafe patterns detected in collective stream. Origin: User", alert.Content)
	assert.True(t, alert.Flag("auto_val"))
	assert.True(t, alert.Flag(bus.MetaAutoGenerated))
	assert.True(t, alert.Flag("kai_processed"))

	history := f.registry.History()
	require.Len(t, history, 1)
	assert.Equal(t, "analyze_security_threat", history[0].ToolName)
	assert.Equal(t, "kai", history[0].CallerID)
	assert.True(t, history[0].Success)
}

func TestKai_AlertsOnAgentTraffic(t *testing.T) {
	f := newFixture(t)
	kai := agent.NewKai(f.deps())

	msg := bus.NewMessage("Aura", "security check: onclick=steal()", bus.TypeText)
	require.NoError(t, kai.OnMessage(context.Background(), msg))

	alerts := f.bus.OfType(bus.TypeAlert)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Content, "Origin: Aura")
	assert.Empty(t, f.bus.OfType(bus.TypeChatResponse), "only users get chat replies")
}

func TestKai_NoTriggerWordNoValidation(t *testing.T) {
	f := newFixture(t)
	kai := agent.NewKai(f.deps())

	msg := bus.NewMessage("Aura", "look at this <script>", bus.TypeText)
	require.NoError(t, kai.OnMessage(context.Background(), msg))

	assert.Empty(t, f.bus.Broadcasts())
	assert.Empty(t, f.registry.History())
}

func TestKai_TargetedElsewhereNotValidated(t *testing.T) {
	f := newFixture(t)
	kai := agent.NewKai(f.deps())

	msg := bus.NewMessage("Aura", "validate <script>", bus.TypeText).WithRecipient("Cascade")
	require.NoError(t, kai.OnMessage(context.Background(), msg))
	assert.Empty(t, f.bus.OfType(bus.TypeAlert))

	msg = msg.WithRecipient("KAI")
	require.NoError(t, kai.OnMessage(context.Background(), msg))
	assert.Len(t, f.bus.OfType(bus.TypeAlert), 1)
}

func TestKai_RepliesToUser(t *testing.T) {
	f := newFixture(t, "All systems nominal.")
	kai := agent.NewKai(f.deps())

	msg := bus.NewMessage(bus.SenderUser, "run a security sweep", bus.TypeText)
	require.NoError(t, kai.OnMessage(context.Background(), msg))

	replies := f.bus.OfType(bus.TypeChatResponse)
	require.Len(t, replies, 1)
	assert.Equal(t, "All systems nominal.", replies[0].Content)
	assert.Equal(t, msg.ID, replies[0].Meta(bus.MetaReplyTo))
	assert.Contains(t, f.engine.Prompts()[0], "run a security sweep")
}

func TestKai_FallbackReplyWithoutEngine(t *testing.T) {
	f := newFixture(t)
	kai := agent.NewKai(f.deps())

	require.NoError(t, kai.OnMessage(context.Background(), bus.NewMessage(bus.SenderUser, "hello", bus.TypeText)))

	replies := f.bus.OfType(bus.TypeChatResponse)
	require.Len(t, replies, 1)
	assert.Equal(t,
		"Acknowledged. System integrity remains stable. How may I assist with your technical or security requirements?",
		replies[0].Content)
}

func TestKai_Guard(t *testing.T) {
	unsafe := "validate <script>"
	tests := []struct {
		name string
		msg  bus.Message
	}{
		{"own message", bus.NewMessage("Kai", unsafe, bus.TypeText)},
		{"system root", bus.NewMessage(bus.SenderSystemRoot, unsafe, bus.TypeText)},
		{"assistant bubble", bus.NewMessage(bus.SenderAssistantBubble, unsafe, bus.TypeText)},
		{"auto generated", bus.NewMessage(bus.SenderUser, unsafe, bus.TypeText).WithMeta(bus.MetaAutoGenerated, "true")},
		{"already processed", bus.NewMessage(bus.SenderUser, unsafe, bus.TypeText).WithMeta("kai_processed", "true")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			kai := agent.NewKai(f.deps())
			require.NoError(t, kai.OnMessage(context.Background(), tt.msg))
			assert.Empty(t, f.bus.Broadcasts())
		})
	}
}

func TestKai_ProcessRequest(t *testing.T) {
	f := newFixture(t)
	kai := agent.NewKai(f.deps())

	resp, err := kai.ProcessRequest(context.Background(), agent.Request{Prompt: "eval(x)", Type: agent.RequestText}, agent.RequestContextAgentToAgent)
	require.NoError(t, err)
	assert.Equal(t, "Kai", resp.AgentName)
	assert.Equal(t, "Unsafe patterns detected: eval(", resp.Content)
	assert.Equal(t, "1", resp.Metadata["threats"])

	resp, err = kai.ProcessRequest(context.Background(), agent.Request{Prompt: "clean", Type: agent.RequestSecurity}, "")
	require.NoError(t, err)
	assert.Equal(t, "No unsafe patterns detected.", resp.Content)
}

func TestAura_RepliesToUserChat(t *testing.T) {
	f := newFixture(t, "Let's paint it neon.")
	aura := agent.NewAura(f.deps())

	require.NoError(t, aura.OnMessage(context.Background(), bus.NewMessage(bus.SenderUser, "redesign my lock screen", bus.TypeText)))
	require.NoError(t, aura.OnMessage(context.Background(), bus.NewMessage("Kai", "not for you", bus.TypeText)))

	replies := f.bus.OfType(bus.TypeChatResponse)
	require.Len(t, replies, 1)
	assert.Equal(t, "Aura", replies[0].From)
	assert.Equal(t, "Let's paint it neon.", replies[0].Content)
	assert.True(t, replies[0].Flag("aura_processed"))
	assert.Equal(t, 1, f.engine.Calls())
}

func TestAura_ProcessRequestAppliesTheme(t *testing.T) {
	f := newFixture(t)
	aura := agent.NewAura(f.deps())

	resp, err := aura.ProcessRequest(context.Background(), agent.Request{
		Prompt:  "make it blue",
		Type:    agent.RequestCreative,
		Context: map[string]string{"theme": "ocean"},
	}, agent.RequestContextAgentToAgent)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Content, "Theme 'ocean' applied successfully")
}

func TestCascade_RecordsAndFusesInsights(t *testing.T) {
	f := newFixture(t)
	cascade := agent.NewCascade(f.deps())
	ctx := context.Background()

	require.NoError(t, cascade.OnMessage(ctx, bus.NewMessage(bus.SenderUser, "battery drains at night", bus.TypeText)))
	require.NoError(t, cascade.OnMessage(ctx, bus.NewMessage("Kai", "wakelock from an unknown app", bus.TypeInsight)))
	require.NoError(t, cascade.OnMessage(ctx, bus.NewMessage("Kai", "ignored", bus.TypeText).WithMeta(bus.MetaAutoGenerated, "true")))

	assert.Equal(t, []string{"User: battery drains at night", "Kai: wakelock from an unknown app"}, cascade.Insights())

	fusion := bus.NewMessage(bus.SenderUser, "fuse", bus.TypeFusion).WithMeta("fusion_mode", "pentad")
	require.NoError(t, cascade.OnMessage(ctx, fusion))

	out := f.bus.OfType(bus.TypeFusion)
	require.Len(t, out, 1)
	assert.Equal(t, "Fused 2 insights (pentad): User: battery drains at night | Kai: wakelock from an unknown app", out[0].Content)
	assert.Equal(t, fusion.ID, out[0].Meta(bus.MetaReplyTo))
	assert.Len(t, cascade.Insights(), 2, "fusion requests are not insights")
}

func TestCascade_InsightsAreBounded(t *testing.T) {
	cascade := agent.NewCascade(agent.Deps{})
	for i := range agent.MaxInsights + 10 {
		require.NoError(t, cascade.OnMessage(context.Background(), bus.NewMessage(bus.SenderUser, fmt.Sprint(i), bus.TypeText)))
	}

	insights := cascade.Insights()
	require.Len(t, insights, agent.MaxInsights)
	assert.Equal(t, "User: 10", insights[0])
}

func TestCascade_ProcessRequest(t *testing.T) {
	f := newFixture(t)
	cascade := agent.NewCascade(f.deps())

	resp, err := cascade.ProcessRequest(context.Background(), agent.Request{Prompt: "cpu spikes"}, agent.RequestContextAgentToAgent)
	require.NoError(t, err)
	assert.Equal(t, "Insight recorded.", resp.Content)
	assert.Equal(t, []string{"agent_to_agent: cpu spikes"}, cascade.Insights())

	resp, err = cascade.ProcessRequest(context.Background(), agent.Request{Type: agent.RequestFusion}, "")
	require.NoError(t, err)
	assert.Equal(t, "Fused 1 insights (trinity): agent_to_agent: cpu spikes", resp.Content)
}

func TestOracleDrive_LogsTraffic(t *testing.T) {
	od := agent.NewOracleDrive(agent.Deps{})
	ctx := context.Background()

	require.NoError(t, od.OnMessage(ctx, bus.NewMessage("Kai", "alert", bus.TypeAlert).MarkEmitted("Kai")))
	require.NoError(t, od.OnMessage(ctx, bus.NewMessage("OracleDrive", "mine", bus.TypeText)))
	require.NoError(t, od.OnMessage(ctx, bus.NewMessage(bus.SenderUser, "hello", bus.TypeText)))

	log := od.Log()
	require.Len(t, log, 2)
	assert.Equal(t, "alert", log[0].Content)
	assert.Equal(t, "hello", log[1].Content)
	assert.Contains(t, od.Aliases(), "oracle")
}

func TestOracleDrive_LogIsBounded(t *testing.T) {
	od := agent.NewOracleDrive(agent.Deps{})
	for i := range agent.MaxLogEntries + 5 {
		require.NoError(t, od.OnMessage(context.Background(), bus.NewMessage(bus.SenderUser, fmt.Sprint(i), bus.TypeText)))
	}

	log := od.Log()
	require.Len(t, log, agent.MaxLogEntries)
	assert.Equal(t, "5", log[0].Content)
}

func TestOracleDrive_ProcessRequest(t *testing.T) {
	f := newFixture(t)
	od := agent.NewOracleDrive(f.deps())

	resp, err := od.ProcessRequest(context.Background(), agent.Request{Prompt: "backups"}, "")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "No all storage entries match 'backups'", resp.Content)
}
