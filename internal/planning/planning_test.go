package planning

import "testing"

func TestDecomposeGoalSplitsOnConnectors(t *testing.T) {
	tasks := DecomposeGoal("research the topic and then write a summary")
	if len(tasks) != 2 {
		t.Fatalf("expected 2 sub-tasks, got %d", len(tasks))
	}
	if tasks[1].Dependencies[0] != tasks[0].ID {
		t.Fatalf("expected second sub-task to depend on first, got %+v", tasks[1])
	}
}

func TestDecomposeGoalSingleClauseStaysWhole(t *testing.T) {
	tasks := DecomposeGoal("write a poem")
	if len(tasks) != 1 {
		t.Fatalf("expected a single sub-task, got %d", len(tasks))
	}
}

func TestBindToolsMatchesKeyword(t *testing.T) {
	tasks := []SubTask{{ID: "task-1", Description: "search the web for recent news"}}
	bound := BindTools(tasks, map[string]struct{}{"search": {}})
	if bound[0].ToolHint != "search" {
		t.Fatalf("expected search tool bound, got %q", bound[0].ToolHint)
	}
}

func TestAssembleDAGProducesSequentialChain(t *testing.T) {
	tasks := DecomposeGoal("research the topic and then write a summary")
	dag := AssembleDAG(tasks)
	frontier := dag.FrontierGroup()
	if len(frontier) != 1 || frontier[0] != "task-1" {
		t.Fatalf("expected only task-1 ready initially, got %v", frontier)
	}
}
