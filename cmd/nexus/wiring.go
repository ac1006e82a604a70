package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nexuscore/agentcore/internal/audit"
	"github.com/nexuscore/agentcore/internal/config"
	"github.com/nexuscore/agentcore/internal/contextwindow"
	"github.com/nexuscore/agentcore/internal/coreagent"
	"github.com/nexuscore/agentcore/internal/metrics"
	"github.com/nexuscore/agentcore/internal/multiagent"
	"github.com/nexuscore/agentcore/internal/providers"
	"github.com/nexuscore/agentcore/internal/router"
	"github.com/nexuscore/agentcore/internal/scheduler"
	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/internal/tools/builtin"
	"github.com/nexuscore/agentcore/internal/usage"
)

// stack is every long-lived component wired together from one loaded
// Config, ready for a command to drive.
type stack struct {
	cfg       *config.Config
	audit     *audit.Logger
	metrics   *metrics.Collector
	budget    *usage.Tracker
	registry  *tools.Registry
	router    *router.Router
	compactor *contextwindow.Compactor
	runtime   *coreagent.Runtime
	dispatch  *multiagent.Dispatcher
	scheduler *scheduler.Scheduler
}

// buildStack loads cfg and wires every component named in SPEC_FULL.md:
// provider bindings, budget tracker, tool registry (with the builtin shell/
// read_file tools only), router,
// compactor, the turn-loop runtime, the multi-agent dispatcher, and the
// scheduler (restored from its durable store).
func buildStack(configPath string) (*stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	creds := config.LoadCredentials()

	auditLogger, err := audit.NewLogger(audit.Config{
		Enabled: true,
		Output:  "stderr",
		Level:   audit.Level(config.LogLevel("info")),
		Format:  audit.FormatJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("main: building audit logger: %w", err)
	}
	metricsCollector := metrics.New()
	auditLogger.WithMetrics(metricsCollector)

	budget, err := usage.NewTracker(usage.Config{
		DailyLimitUSD:               cfg.Budget.DailyLimitUSD,
		MonthlyLimitUSD:             cfg.Budget.MonthlyLimitUSD,
		Dir:                         cfg.Budget.LedgerDir,
		DefaultInputPricePerMillion: cfg.Budget.DefaultInputPricePerMillion,
	})
	if err != nil {
		return nil, fmt.Errorf("main: building usage tracker: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("main: resolving working directory: %w", err)
	}

	registry := tools.NewRegistry(auditLogger, 0)
	if err := registry.Register(builtin.NewShellTool(workDir)); err != nil {
		return nil, fmt.Errorf("main: registering shell tool: %w", err)
	}
	if err := registry.Register(builtin.NewReadFileTool(workDir)); err != nil {
		return nil, fmt.Errorf("main: registering read_file tool: %w", err)
	}

	bindings, err := buildBindings(cfg, creds)
	if err != nil {
		return nil, err
	}

	routerCfg := router.Config{
		DefaultTier:       router.Tier(cfg.Router.DefaultTier),
		SkillTiers:        convertSkillTiers(cfg.Router.SkillTiers),
		KeywordRules:      convertKeywordRules(cfg.Router.KeywordRules),
		EscalationEnabled: cfg.Router.EscalationEnabled,
		MaxLocalRetries:   cfg.Router.MaxLocalRetries,
		FallbackLocalTier: router.Tier(cfg.Router.FallbackLocalTier),
	}
	if enabled, ok := config.EscalationEnabledOverride(); ok {
		routerCfg.EscalationEnabled = enabled
	}
	rt := router.New(routerCfg, bindings, budget, auditLogger)

	var compactor *contextwindow.Compactor
	if local, ok := bindings[router.Tier(cfg.Router.FallbackLocalTier)]; ok {
		compactor = contextwindow.NewCompactor(contextwindow.ProviderCompressor{Provider: local.Provider, Model: local.Model})
	} else {
		compactor = contextwindow.NewCompactor(nil)
	}

	runtime := coreagent.NewRuntime(rt, registry, compactor, auditLogger, coreagent.DefaultConfig())

	dispatcher := multiagent.NewDispatcher(convertHintedAgents(cfg.Agents))

	storeDir := cfg.Scheduler.StoreDir
	if storeDir == "" {
		storeDir = "nexus-scheduler"
	}
	store, err := scheduler.NewFileStore(storeDir)
	if err != nil {
		return nil, fmt.Errorf("main: building scheduler store: %w", err)
	}
	notifier := scheduler.NewNotifier(scheduler.NotifierConfig{
		MaxPerHour:       cfg.Scheduler.Notify.MaxPerHour,
		ActiveHoursStart: cfg.Scheduler.Notify.ActiveHoursStart,
		ActiveHoursEnd:   cfg.Scheduler.Notify.ActiveHoursEnd,
		Policy:           scheduler.QuietHoursPolicy(cfg.Scheduler.Notify.QuietHoursPolicy),
	}, func(content string) error {
		slog.Info("scheduled notification", "content", content)
		return nil
	})

	runner := &coreagent.ScheduledRunner{
		Runtime:  runtime,
		PromptIn: coreagent.PromptInput{ContextWindow: coreagent.DefaultConfig().ContextWindow},
	}
	sched := scheduler.New(runner, store, notifier, scheduler.WithAudit(auditLogger))
	if err := sched.Restore(); err != nil {
		return nil, fmt.Errorf("main: restoring scheduled jobs: %w", err)
	}
	for _, j := range cfg.Scheduler.Jobs {
		if err := registerConfiguredJob(sched, j); err != nil {
			return nil, fmt.Errorf("main: registering job %q: %w", j.Name, err)
		}
	}

	return &stack{
		cfg:       cfg,
		audit:     auditLogger,
		metrics:   metricsCollector,
		budget:    budget,
		registry:  registry,
		router:    rt,
		compactor: compactor,
		runtime:   runtime,
		dispatch:  dispatcher,
		scheduler: sched,
	}, nil
}

func registerConfiguredJob(sched *scheduler.Scheduler, j config.JobConfig) error {
	switch j.Kind {
	case "one_shot":
		delay, err := scheduler.ParseDelay(j.Delay)
		if err != nil {
			return err
		}
		return sched.AddOneShot(j.Name, delay, j.AgentPrompt, j.Notify)
	case "cron":
		return sched.AddCron(j.Name, j.Expression, j.AgentPrompt, j.Notify)
	case "interval":
		return sched.AddInterval(j.Name, j.IntervalMin, j.AgentPrompt, j.Notify)
	default:
		return fmt.Errorf("unknown job kind %q", j.Kind)
	}
}

func buildBindings(cfg *config.Config, creds config.Credentials) (map[router.Tier]router.Binding, error) {
	bindings := make(map[router.Tier]router.Binding, len(cfg.Tiers))
	for _, t := range cfg.Tiers {
		var p providers.Provider
		switch t.Provider {
		case "local":
			p = providers.NewLocalProvider(providers.LocalConfig{DefaultModel: t.Model})
		case "anthropic":
			p = providers.NewAnthropicProvider(providers.AnthropicConfig{APIKey: creds.AnthropicAPIKey, DefaultModel: t.Model})
		case "openai":
			p = providers.NewCloudProvider(providers.CloudConfig{Name: "openai", APIKey: creds.CloudAPIKey, DefaultModel: t.Model})
		default:
			return nil, fmt.Errorf("tier %q: unknown provider %q", t.Name, t.Provider)
		}
		bindings[router.Tier(t.Name)] = router.Binding{Provider: p, Model: t.Model}
	}
	return bindings, nil
}

func convertSkillTiers(in map[string]string) map[string]router.Tier {
	out := make(map[string]router.Tier, len(in))
	for k, v := range in {
		out[k] = router.Tier(v)
	}
	return out
}

func convertKeywordRules(in []config.KeywordRule) []router.KeywordRule {
	out := make([]router.KeywordRule, len(in))
	for i, r := range in {
		out[i] = router.KeywordRule{Keyword: r.Keyword, Tier: router.Tier(r.Tier)}
	}
	return out
}

func convertHintedAgents(in []config.AgentConfig) []multiagent.HintedAgent {
	out := make([]multiagent.HintedAgent, len(in))
	for i, a := range in {
		out[i] = multiagent.HintedAgent{Name: a.Name, Hints: a.Hints}
	}
	return out
}
