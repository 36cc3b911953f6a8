package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Fatalf("expected default read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Planning.AssemblyOffsetDays != defaultAssemblyOffsetDays {
		t.Fatalf("expected default assembly offset, got %d", cfg.Planning.AssemblyOffsetDays)
	}
	if cfg.Planning.DistanceDivisorKm != defaultDistanceDivisorKm {
		t.Fatalf("expected default distance divisor, got %d", cfg.Planning.DistanceDivisorKm)
	}
	if cfg.RateLimits.PlanningPerWindow != defaultRateLimitPlanning {
		t.Fatalf("expected default planning rate limit, got %d", cfg.RateLimits.PlanningPerWindow)
	}
	if cfg.Security.Environment != defaultSecurityEnvironment {
		t.Fatalf("expected default environment, got %s", cfg.Security.Environment)
	}
}

func TestLoadEnvMapOverrides(t *testing.T) {
	cfg, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{
			"PORT":                         "9090",
			"SERVER_READ_TIMEOUT":          "5s",
			"FIRESTORE_PROJECT_ID":         "demo-project",
			"PUBSUB_PROJECT_ID":            "demo-project",
			"PUBSUB_SHORTFALL_TOPIC":       "stock-shortfalls",
			"PLANNING_ASSEMBLY_OFFSET_DAYS": "2",
			"PLANNING_DISTANCE_DIVISOR_KM": "500",
			"RATE_LIMIT_PLANNING":          "10",
			"RATE_LIMIT_WINDOW":            "30s",
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected overridden port, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("expected overridden read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "demo-project" {
		t.Fatalf("expected firestore project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ShortfallTopic != "stock-shortfalls" {
		t.Fatalf("expected shortfall topic, got %s", cfg.PubSub.ShortfallTopic)
	}
	if cfg.Planning.AssemblyOffsetDays != 2 {
		t.Fatalf("expected assembly offset 2, got %d", cfg.Planning.AssemblyOffsetDays)
	}
	if cfg.Planning.DistanceDivisorKm != 500 {
		t.Fatalf("expected distance divisor 500, got %d", cfg.Planning.DistanceDivisorKm)
	}
	if cfg.RateLimits.PlanningPerWindow != 10 {
		t.Fatalf("expected planning rate limit 10, got %d", cfg.RateLimits.PlanningPerWindow)
	}
	if cfg.RateLimits.Window != 30*time.Second {
		t.Fatalf("expected rate limit window 30s, got %s", cfg.RateLimits.Window)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	_, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"PORT": "not-a-port"}),
	)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validationErr.Fields()
	if len(fields) != 1 || fields[0] != "PORT" {
		t.Fatalf("expected PORT in invalid fields, got %v", fields)
	}
}

func TestLoadShortfallTopicRequiresProject(t *testing.T) {
	_, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"PUBSUB_SHORTFALL_TOPIC": "stock-shortfalls"}),
	)
	if err == nil {
		t.Fatal("expected validation error when no project is configured")
	}
}

func TestLoadMalformedNumbersFallBack(t *testing.T) {
	cfg, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{
			"PLANNING_DISTANCE_DIVISOR_KM": "many",
			"RATE_LIMIT_WINDOW":            "soon",
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Planning.DistanceDivisorKm != defaultDistanceDivisorKm {
		t.Fatalf("expected fallback divisor, got %d", cfg.Planning.DistanceDivisorKm)
	}
	if cfg.RateLimits.Window != defaultRateLimitWindow {
		t.Fatalf("expected fallback window, got %s", cfg.RateLimits.Window)
	}
}
