// Package planning implements the supplemented T3 planning stage: goal
// decomposition into sub-tasks and assembly into the initial
// ExecutableDAG the OODA Cycle Driver executes. Grounded on the Python
// original's kernel/task_decomposition (decompose_goal, SubTaskItem,
// DependencyEdge) and kernel/advanced_planning (sequence_and_prioritize,
// bind_tools, node_assembler, graph_synthesizer).
package planning

import (
	"fmt"
	"strings"

	"github.com/azzindani/cogkernel/internal/ooda"
	"github.com/azzindani/cogkernel/internal/types"
)

// SubTask is one decomposed unit of work, mirroring SubTaskItem.
type SubTask struct {
	ID           string
	Description  string
	ToolHint     string
	Dependencies []string
}

// DecomposeGoal splits an objective into an ordered chain of sub-tasks.
// Lacking an LLM-backed planner, this splits on coordinating connectors
// ("and", "then", ";") the way a rule-based fallback would, and chains
// each sub-task sequentially — matching the conservative default the
// original takes when no richer decomposition is available.
func DecomposeGoal(objective string) []SubTask {
	parts := splitObjective(objective)
	tasks := make([]SubTask, 0, len(parts))
	var prev string
	for i, p := range parts {
		id := fmt.Sprintf("task-%d", i+1)
		var deps []string
		if prev != "" {
			deps = []string{prev}
		}
		tasks = append(tasks, SubTask{ID: id, Description: p, Dependencies: deps})
		prev = id
	}
	return tasks
}

func splitObjective(objective string) []string {
	replaced := objective
	for _, sep := range []string{" and then ", " then ", "; ", " and "} {
		replaced = strings.ReplaceAll(replaced, sep, "|")
	}
	raw := strings.Split(replaced, "|")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		out = []string{objective}
	}
	return out
}

// BindTools assigns a tool hint to each sub-task from the identity's
// available tools by simple keyword match, mirroring bind_tools.
func BindTools(tasks []SubTask, availableTools map[string]struct{}) []SubTask {
	bound := make([]SubTask, len(tasks))
	copy(bound, tasks)
	for i, t := range bound {
		lower := strings.ToLower(t.Description)
		for tool := range availableTools {
			if strings.Contains(lower, strings.ToLower(tool)) {
				bound[i].ToolHint = tool
				break
			}
		}
	}
	return bound
}

// AssembleDAG turns bound sub-tasks into an ExecutableDAG, one node per
// sub-task, mirroring node_assembler + graph_synthesizer's sequencing of
// planning output into dispatchable nodes.
func AssembleDAG(tasks []SubTask) *ooda.ExecutableDAG {
	dag := ooda.NewExecutableDAG()
	for _, t := range tasks {
		kind := "inference"
		target := t.Description
		if t.ToolHint != "" {
			kind = "tool"
			target = t.ToolHint
		}
		dag.AddNode(t.ID, types.ActionInstruction{Kind: kind, Target: target, Payload: map[string]any{"description": t.Description}}, t.Dependencies)
	}
	return dag
}
