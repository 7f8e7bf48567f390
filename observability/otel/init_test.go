package otel

import (
	"context"
	"strings"
	"testing"
)

func TestInitRequiresServiceName(t *testing.T) {
	if _, err := Init(context.Background(), Config{Traces: true}); err == nil {
		t.Fatalf("expected error without service name")
	}
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "mintd"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders("authorization=Bearer x, ,broken,tenant = birds")
	if len(headers) != 2 || headers["authorization"] != "Bearer x" || headers["tenant"] != "birds" {
		t.Fatalf("unexpected headers %v", headers)
	}
}

func TestConfigFromEnvDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv(envEndpoint, "")
	cfg := ConfigFromEnv("mintd", "dev")
	if cfg.Traces || cfg.Metrics {
		t.Fatalf("exporters must stay off without an endpoint: %+v", cfg)
	}
	if !cfg.Insecure || cfg.SampleRatio != 1 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestConfigFromEnvReadsVariables(t *testing.T) {
	t.Setenv(envEndpoint, "collector:4318")
	t.Setenv(envInsecure, "false")
	t.Setenv(envHeaders, "tenant=birds")
	t.Setenv(envSamplerArg, "0.25")
	cfg := ConfigFromEnv("mintd", "prod")
	if !cfg.Traces || !cfg.Metrics || cfg.Endpoint != "collector:4318" {
		t.Fatalf("unexpected exporter config %+v", cfg)
	}
	if cfg.Insecure || cfg.Headers["tenant"] != "birds" || cfg.SampleRatio != 0.25 {
		t.Fatalf("unexpected parsed config %+v", cfg)
	}
}

func TestSamplerDescription(t *testing.T) {
	if got := Sampler(0.5).Description(); !strings.Contains(got, "TraceIDRatioBased") {
		t.Fatalf("expected ratio sampler, got %s", got)
	}
	if got := Sampler(0).Description(); !strings.Contains(got, "AlwaysOnSampler") {
		t.Fatalf("expected always-on root sampler, got %s", got)
	}
}
