package apex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/azzindani/cogkernel/internal/calibration"
	"github.com/azzindani/cogkernel/internal/config"
	"github.com/azzindani/cogkernel/internal/eventstream"
	"github.com/azzindani/cogkernel/internal/grounding"
	"github.com/azzindani/cogkernel/internal/inference"
	"github.com/azzindani/cogkernel/internal/kernelerr"
	"github.com/azzindani/cogkernel/internal/lifecycle"
	"github.com/azzindani/cogkernel/internal/load"
	"github.com/azzindani/cogkernel/internal/memory"
	"github.com/azzindani/cogkernel/internal/noisegate"
	"github.com/azzindani/cogkernel/internal/observability"
	"github.com/azzindani/cogkernel/internal/ooda"
	"github.com/azzindani/cogkernel/internal/perception"
	"github.com/azzindani/cogkernel/internal/planning"
	"github.com/azzindani/cogkernel/internal/retrieval"
	"github.com/azzindani/cogkernel/internal/router"
	"github.com/azzindani/cogkernel/internal/selfmodel"
	"github.com/azzindani/cogkernel/internal/storage"
	"github.com/azzindani/cogkernel/internal/toolkit"
	"github.com/azzindani/cogkernel/internal/types"
	"go.uber.org/zap"
)

// Orchestrator is the Apex Orchestrator: the single process() entry
// point that runs Gate-In, Execute, and Gate-Out for one trace. Grounded
// on cmd/octoreflex/main.go's runWorker, which likewise wires a fixed
// set of subsystems (escalation, budget, ledger, metrics) together once
// and drives one accumulator/state loop to completion per PID.
type Orchestrator struct {
	cfg         config.Config
	router      *router.Router
	groundingEn *grounding.Engine
	calibStore  *calibration.Store
	retryBudget *noisegate.RetryBudget
	kit         inference.Kit
	tools       toolkit.Registry
	retriever   retrieval.Retriever
	stream      eventstream.Stream
	actor       ooda.Actor
	maxModules  int
	db          *storage.DB
	metrics     *observability.Metrics
	log         *zap.Logger
}

// New wires every Gate-In/Execute/Gate-Out collaborator into one
// Orchestrator. db and metrics may be nil, in which case calibration
// curves and the decision ledger exist only for the process lifetime and
// no Prometheus observations are recorded.
func New(cfg config.Config, cache router.DecisionCache, kit inference.Kit, tools toolkit.Registry, retriever retrieval.Retriever, stream eventstream.Stream, db *storage.DB, metrics *observability.Metrics, log *zap.Logger) *Orchestrator {
	r := router.New(router.Config{
		ClassifyWeights: router.DefaultClassifyWeights(),
		Pressure: router.PressureConfig{
			ModerateThreshold: cfg.Router.PressureModerateThreshold,
			HighThreshold:     cfg.Router.PressureHighThreshold,
		},
	}, cache)

	maxModules := len(router.PipelineFor(types.ComplexityCritical).Active)

	calibStore := calibration.NewStore()
	if db != nil {
		if curves, err := db.AllCalibrationCurves(); err == nil {
			for _, c := range curves {
				calibStore.LoadCurve(c)
			}
		} else if log != nil {
			log.Warn("failed to restore calibration curves from storage", zap.Error(err))
		}
	}

	return &Orchestrator{
		cfg:    cfg,
		router: r,
		groundingEn: grounding.NewEngine(grounding.Config{
			GroundedThreshold:   cfg.Grounding.GroundedThreshold,
			FabricatedThreshold: cfg.Grounding.FabricatedThreshold,
			GradeWeights:        cfg.Grounding.GradeWeights,
		}, kit),
		calibStore:  calibStore,
		retryBudget: noisegate.NewRetryBudget(cfg.NoiseGate.RetryBudget),
		kit:         kit,
		tools:       tools,
		retriever:   retriever,
		stream:      stream,
		actor:       DefaultActor{Kit: kit, Tools: tools},
		maxModules:  maxModules,
		db:          db,
		metrics:     metrics,
		log:         log,
	}
}

// gateState is Gate-In's output: everything Execute needs to drive the
// trace to completion.
type gateState struct {
	tags       types.SignalTags
	capability types.CapabilityAssessment
	activation types.ActivationMap
	complexity types.ComplexityLevel
	mode       types.ProcessingMode
	pipeline   types.PipelineConfig
	dag        *ooda.ExecutableDAG
	stm        *memory.ShortTermMemory
	energy     *lifecycle.EnergyBudget
	objective  string
}

// execResult is Execute's output: the accumulated node outputs and the
// decision that ended the cycle loop.
type execResult struct {
	cycles             int
	outputs            []string
	terminalAction     types.DecisionAction
	terminationReason  string
	diagnostics        []string
}

// Process runs one full Gate-In -> Execute -> Gate-Out pass for req,
// returning the single ObserverResult the caller blocks on, per
// spec.md §4.1's top-level contract.
func (o *Orchestrator) Process(ctx context.Context, req types.SpawnRequest, input types.RawInput) types.ObserverResult {
	start := time.Now()
	ledger := NewDecisionLedger()

	gate, err := o.gateIn(req, input)
	if err != nil {
		if o.metrics != nil {
			o.metrics.FinalPhaseTotal.WithLabelValues(string(types.PhaseEscalated)).Inc()
		}
		return types.ObserverResult{
			FinalPhase:        types.PhaseEscalated,
			TerminationReason: err.Error(),
			TotalDuration:     time.Since(start),
		}
	}

	exec := o.execute(ctx, gate, ledger)
	result := o.gateOut(ctx, gate, exec, req)
	totalCycles := exec.cycles

	for result.Rejection != nil && !result.Rejection.Terminal {
		o.applyRetryGuidance(gate, result.Rejection.Guidance)
		exec = o.execute(ctx, gate, ledger)
		totalCycles += exec.cycles
		result = o.gateOut(ctx, gate, exec, req)
	}

	result.TotalDuration = time.Since(start)
	result.TotalCycles = totalCycles
	result.Mode = gate.mode

	o.persist(req.TraceID, gate.tags.Domain, ledger)
	o.record(gate, exec, result, ledger, time.Since(start))
	return result
}

// applyRetryGuidance folds a non-terminal Gate-Out rejection's
// RetryGuidance into the next Execute attempt, per spec.md §4.1 step
// 5/§4.6's retry contract: the feedback is appended to the objective so
// the DAG replans around it, mirroring the ActionReplan branch in
// execute().
func (o *Orchestrator) applyRetryGuidance(gate *gateState, guidance []types.RetryGuidance) {
	notes := make([]string, 0, len(guidance))
	for _, g := range guidance {
		notes = append(notes, g.Message)
	}
	if len(notes) > 0 {
		gate.objective = gate.objective + " | retry guidance: " + strings.Join(notes, "; ")
	}
	tasks := planning.DecomposeGoal(gate.objective)
	tasks = planning.BindTools(tasks, gate.tags.RequiredTools)
	gate.dag = planning.AssembleDAG(tasks)
	gate.stm.ResetDAG()
}

// record reports this trace's outcome to the metrics surface, when one
// is configured.
func (o *Orchestrator) record(gate *gateState, exec *execResult, result types.ObserverResult, ledger *DecisionLedger, duration time.Duration) {
	if o.metrics == nil {
		return
	}

	entries := ledger.Entries()
	actions := make([]string, len(entries))
	for i, e := range entries {
		actions[i] = string(e.Decision.Action)
	}

	var groundingScore float64
	var claimGrades []string
	var overconfident, underconfident bool
	if result.GroundingReport != nil {
		groundingScore = result.GroundingReport.Score
		claimGrades = make([]string, len(result.GroundingReport.Grades))
		for i, g := range result.GroundingReport.Grades {
			claimGrades[i] = string(g.Grade)
		}
	}
	if result.Calibrated != nil {
		overconfident = result.Calibrated.IsOverconfident
		underconfident = result.Calibrated.IsUnderconfident
	}

	noiseGateOutcome := ""
	switch {
	case result.FilteredOutput != nil:
		noiseGateOutcome = "accepted"
	case result.Rejection != nil && result.Rejection.Terminal:
		noiseGateOutcome = "rejected_terminal"
	case result.Rejection != nil:
		noiseGateOutcome = "rejected_retryable"
	}

	severityBand := "none"
	if gate.capability.Gap != nil {
		switch {
		case gate.capability.Gap.Severity >= 1.0:
			severityBand = "blocking"
		case gate.capability.Gap.Severity > 0:
			severityBand = "partial"
		}
	}
	o.metrics.CapabilityGapsTotal.WithLabelValues(severityBand).Inc()

	o.metrics.Observe(string(gate.complexity), exec.cycles, actions, string(result.FinalPhase), groundingScore, claimGrades, overconfident, underconfident, noiseGateOutcome, duration)
}

// persist flushes this trace's decision ledger entries and the domain
// calibration curve it touched to storage. Best-effort: a write failure
// is logged and does not affect the already-computed result, matching
// the degrade-gracefully posture spec.md §6 asks of every external
// collaborator.
func (o *Orchestrator) persist(traceID, domain string, ledger *DecisionLedger) {
	if o.db == nil {
		return
	}
	for _, e := range ledger.Entries() {
		entry := storage.LedgerEntry{
			Timestamp:    e.Timestamp,
			TraceID:      traceID,
			CycleIndex:   e.Decision.CycleIndex,
			Action:       string(e.Decision.Action),
			Reasoning:    e.Decision.Reasoning,
			DecisionHash: e.DecisionHash,
			ParentHash:   e.ParentHash,
		}
		if err := o.db.AppendLedger(entry); err != nil && o.log != nil {
			o.log.Warn("failed to persist decision ledger entry", zap.String("trace_id", traceID), zap.Error(err))
		}
	}
	if err := o.db.PutCalibrationCurve(o.calibStore.CurveSnapshot(domain)); err != nil && o.log != nil {
		o.log.Warn("failed to persist calibration curve", zap.String("domain", domain), zap.Error(err))
	}
}

// gateIn runs perception, self-model assessment, and routing, then
// assembles the initial ExecutableDAG and Short-Term Memory arena.
func (o *Orchestrator) gateIn(req types.SpawnRequest, input types.RawInput) (*gateState, error) {
	tags := perception.ExtractSignalTags(input, nil, nil)
	tags.RequiredTools, tags.RequiredSkills = inferRequirements(tags)

	profile := selfmodel.Profile{Tools: req.Identity.ToolsAllowed}
	capability := selfmodel.AssessCapability(tags, profile)
	if capability.Gap != nil && capability.Gap.Severity >= 1.0 {
		return nil, &kernelerr.CapabilityError{
			Reason: fmt.Sprintf("identity cannot satisfy any required skill or tool for domain %q", tags.Domain),
		}
	}

	for tool := range req.Identity.ToolsForbidden {
		if _, needed := tags.RequiredTools[tool]; needed {
			return nil, &kernelerr.PolicyError{
				Reason: fmt.Sprintf("required tool %q is forbidden for this identity", tool),
			}
		}
	}

	// A system-wide contention signal would normally come from a
	// process-level accumulator shared across concurrent traces; this
	// orchestrator is scoped to a single trace, so pressure starts clean.
	const pressure = 0.0

	activation, complexity, _ := o.router.Route(tags, capability.Gap, pressure, req.Identity.ToolsAllowed)
	pipeline := router.PipelineFor(complexity)
	mode := types.ModeForComplexity(complexity)

	tasks := planning.DecomposeGoal(req.Objective)
	tasks = planning.BindTools(tasks, req.Identity.ToolsAllowed)
	dag := planning.AssembleDAG(tasks)

	stm := memory.New(o.cfg.Memory.RingBufferCapacity, o.cfg.Memory.EntityTTL, o.cfg.Memory.EntityMaxEntries, o.cfg.Memory.ContextWindowK)
	energy := &lifecycle.EnergyBudget{TokenLimit: pipeline.TokenBudget}

	return &gateState{
		tags:       tags,
		capability: capability,
		activation: activation,
		complexity: complexity,
		mode:       mode,
		pipeline:   pipeline,
		dag:        dag,
		stm:        stm,
		energy:     energy,
		objective:  req.Objective,
	}, nil
}

// inferRequirements derives the tool/skill requirements a signal places
// on the identity from its domain and primary intent. A real deployment
// sources this from retrieval.SearchRaw against a capability taxonomy;
// this is the static fallback spec.md §6 describes for when the
// Knowledge Retriever is unavailable or unconfigured.
func inferRequirements(tags types.SignalTags) (map[string]struct{}, map[string]struct{}) {
	tools := map[string]struct{}{}
	skills := map[string]struct{}{}
	switch tags.PrimaryIntent {
	case "question":
		tools["search"] = struct{}{}
	case "compare":
		tools["search"] = struct{}{}
		skills["analysis"] = struct{}{}
	}
	switch tags.Domain {
	case "finance":
		tools["calculator"] = struct{}{}
	case "legal", "medical":
		skills["domain_review"] = struct{}{}
	}
	return tools, skills
}

// execute drives the Observe-Orient-Decide-Act loop up to
// pipeline.MaxCycles, consulting the Cognitive Load Monitor between
// cycles when it is active for the selected pipeline.
func (o *Orchestrator) execute(ctx context.Context, gate *gateState, ledger *DecisionLedger) *execResult {
	if gate.activation.Modules["ooda"] != types.ModuleActive {
		return o.executeFast(ctx, gate, ledger)
	}

	res := &execResult{}
	var history []types.Decision
	phase := lifecycle.PhaseActive

	loadCfg := loadConfigFrom(o.cfg.Load)

	for cycle := 1; cycle <= gate.pipeline.MaxCycles; cycle++ {
		res.cycles = cycle
		cycleStart := time.Now()

		ooda.Observe(ctx, o.stream, gate.stm)
		oriented := ooda.Orient(gate.stm, gate.objective)

		_, _, completed, _, _, total := gate.dag.Snapshot()
		objectiveSatisfied := total > 0 && completed == total
		replanBudgetRemaining := cycle < gate.pipeline.MaxCycles

		decision := ooda.Decide(oriented, gate.dag, objectiveSatisfied, replanBudgetRemaining, cycle)
		if _, err := ledger.Record(decision); err != nil {
			res.diagnostics = append(res.diagnostics, err.Error())
			if o.metrics != nil {
				o.metrics.DecisionLedgerViolationsTotal.Inc()
			}
		}
		history = append(history, decision)

		switch decision.Action {
		case types.ActionPark, types.ActionTerminate:
			res.terminalAction = decision.Action
			res.terminationReason = decision.Reasoning
			return res
		case types.ActionReplan:
			tasks := planning.DecomposeGoal(gate.objective)
			tasks = planning.BindTools(tasks, gate.tags.RequiredTools)
			gate.dag = planning.AssembleDAG(tasks)
			gate.stm.ResetDAG()
			continue
		}

		results := ooda.Act(ctx, gate.dag, gate.stm, o.actor, decision.TargetNodeIDs)
		for _, r := range results {
			if r.Err == nil && r.Output != "" {
				res.outputs = append(res.outputs, r.Output)
			}
		}

		tokensSpent := estimateTokens(results)
		gate.energy.Track(tokensSpent, 0)

		if gate.activation.Modules["load"] != types.ModuleActive {
			continue
		}

		telemetry := types.CycleTelemetry{
			CycleIndex:       cycle,
			TokensConsumed:   gate.energy.TokensSpent,
			WallTime:         time.Since(cycleStart),
			ExpectedWallTime: o.cfg.Timeouts.ExecuteCycle,
			ActiveModules:    len(gate.pipeline.Active),
		}
		energyAbort := gate.energy.Exhausted()
		verdict := load.Evaluate(ctx, loadCfg, gate.activation, telemetry, gate.pipeline.TokenBudget, o.maxModules, history, tailStrings(res.outputs, 5), gate.objective, o.kit, energyAbort)
		if _, err := ledger.Record(verdict.Decision); err != nil {
			res.diagnostics = append(res.diagnostics, err.Error())
			if o.metrics != nil {
				o.metrics.DecisionLedgerViolationsTotal.Inc()
			}
		}

		phase = lifecycle.ControlSleepWake(phase, false, energyAbort)
		if phase == lifecycle.PhaseDormant {
			res.terminalAction = types.ActionTerminate
			res.terminationReason = "energy budget exhausted"
			if o.metrics != nil {
				o.metrics.EnergyExhaustedTotal.Inc()
			}
			return res
		}

		switch verdict.Decision.Action {
		case types.ActionTerminate:
			res.terminalAction = verdict.Decision.Action
			res.terminationReason = verdict.Decision.Reasoning
			return res
		case types.ActionEscalate:
			res.terminalAction = verdict.Decision.Action
			res.terminationReason = verdict.Decision.Reasoning
			return res
		case types.ActionSimplify:
			res.diagnostics = append(res.diagnostics, "cognitive load monitor recommended SIMPLIFY: "+verdict.Decision.Reasoning)
		}
	}

	res.terminalAction = types.ActionTerminate
	res.terminationReason = "max cycles reached without a terminal decision"
	return res
}

// executeFast handles pipelines where the OODA Cycle Driver is gated out
// (the TRIVIAL template, or any pipeline whose ooda module was gated for a
// missing required tool): it
// dispatches each frontier group to completion without the
// Observe-Orient-Decide monitoring loop, since a single-shot response
// has nothing to monitor between cycles.
func (o *Orchestrator) executeFast(ctx context.Context, gate *gateState, ledger *DecisionLedger) *execResult {
	res := &execResult{}
	for cycle := 1; cycle <= gate.pipeline.MaxCycles; cycle++ {
		res.cycles = cycle
		frontier := gate.dag.FrontierGroup()
		if len(frontier) == 0 {
			break
		}
		results := ooda.Act(ctx, gate.dag, gate.stm, o.actor, frontier)
		for _, r := range results {
			if r.Err == nil && r.Output != "" {
				res.outputs = append(res.outputs, r.Output)
			}
		}
	}

	decision := types.Decision{Action: types.ActionTerminate, Reasoning: "fast path completed without cycling", CycleIndex: res.cycles}
	if _, err := ledger.Record(decision); err != nil {
		res.diagnostics = append(res.diagnostics, err.Error())
		if o.metrics != nil {
			o.metrics.DecisionLedgerViolationsTotal.Inc()
		}
	}
	res.terminalAction = types.ActionTerminate
	res.terminationReason = decision.Reasoning
	return res
}

func tailStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func estimateTokens(results []ooda.ActionResult) int {
	total := 0
	for _, r := range results {
		total += len(strings.Fields(r.Output))
	}
	return total
}

func loadConfigFrom(c config.LoadConfig) load.Config {
	return load.Config{
		Weights:             load.Weights{Compute: c.ComputeWeight, Time: c.TimeWeight, Breadth: c.BreadthWeight},
		LoopWindow:          c.LoopWindow,
		LoopRepeatThreshold: c.LoopRepeatThreshold,
		GoalDriftThreshold:  c.GoalDriftThreshold,
		AbortAggregate:      c.AbortAggregate,
		SimplifyAggregate:   c.SimplifyAggregate,
	}
}

// gateOut grades the accumulated output for groundedness, reconciles
// stated confidence against the grounding score, and applies the Noise
// Gate's quality threshold.
func (o *Orchestrator) gateOut(ctx context.Context, gate *gateState, exec *execResult, req types.SpawnRequest) types.ObserverResult {
	outputText := strings.Join(exec.outputs, " ")

	if exec.terminalAction == types.ActionPark {
		return types.ObserverResult{
			FinalPhase:        types.PhaseExecute,
			PartialOutput:     outputText,
			TerminationReason: exec.terminationReason,
			Diagnostics:       exec.diagnostics,
		}
	}

	evidence := o.gatherEvidence(ctx, gate.tags, req.Objective)
	claims := grounding.ExtractClaims(outputText)
	grades, warnings := o.groundingEn.GradeClaims(ctx, claims, evidence)
	report := grounding.CalculateGroundingScore(grades, o.cfg.Grounding.GradeWeights)
	contradictions := grounding.DetectContradictions(claims)

	stated := gate.capability.Confidence
	calibCfg := calibration.Config{
		OverconfidenceThreshold: o.cfg.Calibration.OverconfidenceThreshold,
		EMADecay:                o.cfg.Calibration.EMADecay,
	}
	calibrated := o.calibStore.Calibrate(stated, report.Score, gate.tags.Domain, calibCfg)
	o.calibStore.Feedback(stated, report.Score, gate.tags.Domain, calibCfg)

	missing := missingRequiredOutputs(req.Identity.RequiredOutputs, outputText)

	ngInput := noisegate.Input{
		Content:        outputText,
		Grounding:      report,
		Calibrated:     calibrated,
		QualityBar:     req.Identity.QualityBar,
		Contradictions: contradictions,
		MissingOutputs: missing,
	}
	ngCfg := noisegate.Config{
		GroundingFloor:  o.cfg.NoiseGate.GroundingFloor,
		ConfidenceFloor: o.cfg.NoiseGate.ConfidenceFloor,
	}

	retryable := o.retryBudget.Consume(req.TraceID)
	filtered, rejected := noisegate.FilterOutput(ngInput, ngCfg, retryable)

	diagnostics := append(exec.diagnostics, warnings...)

	result := types.ObserverResult{
		GroundingReport: &report,
		Calibrated:      &calibrated,
		Diagnostics:     diagnostics,
	}

	if filtered != nil {
		o.retryBudget.Reset(req.TraceID)
		result.FinalPhase = types.PhaseGateOut
		result.FilteredOutput = filtered
		result.TerminationReason = "accepted"
		return result
	}

	result.Rejection = rejected
	result.PartialOutput = outputText
	if rejected.Terminal {
		o.retryBudget.Reset(req.TraceID)
		result.FinalPhase = types.PhaseAborted
		result.TerminationReason = "quality gate rejected output and retry budget is exhausted"
	} else {
		result.FinalPhase = types.PhaseGateOut
		result.TerminationReason = "quality gate rejected output, retry available"
	}
	return result
}

func (o *Orchestrator) gatherEvidence(ctx context.Context, tags types.SignalTags, objective string) []types.Origin {
	if o.retriever == nil {
		return nil
	}
	text, err := o.retriever.RetrieveContext(ctx, objective, tags.Domain, "", 5)
	if err != nil || text == "" {
		return nil
	}
	return []types.Origin{{ID: "retrieval-context", Content: text, Source: "retrieval", Trust: 0.8}}
}

func missingRequiredOutputs(required []string, output string) []string {
	if len(required) == 0 {
		return nil
	}
	lower := strings.ToLower(output)
	var missing []string
	for _, r := range required {
		if !strings.Contains(lower, strings.ToLower(r)) {
			missing = append(missing, r)
		}
	}
	return missing
}
