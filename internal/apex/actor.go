package apex

import (
	"context"
	"fmt"

	"github.com/azzindani/cogkernel/internal/inference"
	"github.com/azzindani/cogkernel/internal/ooda"
	"github.com/azzindani/cogkernel/internal/toolkit"
	"github.com/azzindani/cogkernel/internal/types"
)

// DefaultActor dispatches a DAG node's bound ActionInstruction against
// the Inference Kit or the Tool Registry, mirroring the kind dispatch
// spec.md §4.7 describes for Act: "tool", "inference", or "subdag".
type DefaultActor struct {
	Kit   inference.Kit
	Tools toolkit.Registry
}

// Act implements ooda.Actor.
func (a DefaultActor) Act(ctx context.Context, instr types.ActionInstruction) ooda.ActionResult {
	switch instr.Kind {
	case "tool":
		return a.actTool(ctx, instr)
	case "inference":
		return a.actInference(ctx, instr)
	default:
		return ooda.ActionResult{Output: fmt.Sprintf("no actor for instruction kind %q", instr.Kind)}
	}
}

func (a DefaultActor) actTool(ctx context.Context, instr types.ActionInstruction) ooda.ActionResult {
	if a.Tools == nil {
		return ooda.ActionResult{Err: fmt.Errorf("no tool registry configured for tool %q", instr.Target)}
	}
	schemas, err := a.Tools.SearchTools(ctx, instr.Target, 1, 0)
	if err != nil {
		return ooda.ActionResult{Err: err}
	}
	if len(schemas) == 0 {
		return ooda.ActionResult{Err: fmt.Errorf("tool %q not found in registry", instr.Target)}
	}
	return ooda.ActionResult{Output: fmt.Sprintf("invoked %s: %s", schemas[0].Name, schemas[0].Description)}
}

func (a DefaultActor) actInference(ctx context.Context, instr types.ActionInstruction) ooda.ActionResult {
	description, _ := instr.Payload["description"].(string)
	if !a.Kit.HasLLM() {
		return ooda.ActionResult{Output: description}
	}
	result, err := a.Kit.LLM.Complete(ctx, []inference.Message{{Role: "user", Content: description}}, a.Kit.LLMCfg)
	if err != nil {
		return ooda.ActionResult{Err: err}
	}
	return ooda.ActionResult{Output: result.Content}
}
