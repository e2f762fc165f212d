package config

import "testing"

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("Defaults() should validate cleanly, got: %v", err)
	}
}

func TestValidateRejectsBadSchemaVersion(t *testing.T) {
	cfg := Defaults()
	cfg.SchemaVersion = "2"
	if err := Validate(&cfg); err == nil {
		t.Fatal("expected validation error for bad schema_version")
	}
}

func TestValidateAggregatesMultipleErrors(t *testing.T) {
	cfg := Defaults()
	cfg.NodeID = ""
	cfg.Load.LoopWindow = 1
	cfg.NoiseGate.RetryBudget = -1

	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected aggregated validation error")
	}
	msg := err.Error()
	for _, want := range []string{"node_id", "loop_window", "retry_budget"} {
		if !contains(msg, want) {
			t.Errorf("expected error to mention %q, got: %s", want, msg)
		}
	}
}

func TestValidateRejectsLoadWeightsNotSummingToOne(t *testing.T) {
	cfg := Defaults()
	cfg.Load.ComputeWeight = 0.9
	if err := Validate(&cfg); err == nil {
		t.Fatal("expected validation error for load weights not summing to 1.0")
	}
}

func TestValidateRequiresRedisAddrForRedisBackend(t *testing.T) {
	cfg := Defaults()
	cfg.Router.CacheBackend = "redis"
	cfg.Router.RedisAddr = ""
	if err := Validate(&cfg); err == nil {
		t.Fatal("expected validation error when redis backend has no address")
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
