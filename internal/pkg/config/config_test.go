package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10, RequestTimeout: 15},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "potholes"},
		NATS:     NATSConfig{URL: "nats://localhost:4222"},
		Valkey:   ValkeyConfig{Addr: "localhost:6379"},
		Policy:   PolicyConfig{MergeThresholdMeters: 150, AlertThresholdMeters: 300},
		Storage:  StorageConfig{Bucket: "pothole-images"},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Policy.MergeThresholdMeters = 0
	cfg.Storage.Bucket = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "policy.merge_threshold_meters", "storage.bucket"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("POTHOLES_POLICY_MERGE_THRESHOLD_METERS", "75")
	t.Setenv("POTHOLES_DATABASE_HOST", "db.internal")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Policy.MergeThresholdMeters != 75 {
		t.Errorf("merge threshold = %v, want 75", cfg.Policy.MergeThresholdMeters)
	}
	if cfg.Policy.AlertThresholdMeters != 300 {
		t.Errorf("alert threshold = %v, want default 300", cfg.Policy.AlertThresholdMeters)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("database host = %q", cfg.Database.Host)
	}
	if cfg.Telemetry.ServiceName != "test" {
		t.Errorf("service name = %q", cfg.Telemetry.ServiceName)
	}
}
