package config

import (
	"context"
	"testing"
)

func TestSetupTracing_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), OtelSettings{Enabled: true}, "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupTracing_NoopWhenDisabled(t *testing.T) {
	s := OtelSettings{Endpoint: "http://localhost:4318", Enabled: false}
	shutdown, err := SetupTracing(context.Background(), s, "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}

func TestSetupTracing_CreatesProviderWhenEndpointSet(t *testing.T) {
	// non-routable address, nothing is exported
	s := OtelSettings{Endpoint: "http://192.0.2.1:4318", Enabled: true}
	shutdown, err := SetupTracing(context.Background(), s, "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
