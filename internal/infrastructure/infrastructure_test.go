package infrastructure_test

import (
	"testing"

	"argus/internal/config"
	"argus/internal/infrastructure"
	"argus/pkg/database"
	"argus/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=argusstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/argusstore;"

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Enabled:         true,
			Host:            "localhost",
			Port:            5432,
			Name:            "argus",
			User:            "argus",
			Password:        "argus",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			Enabled:          true,
			Container:        "snapshots",
			ConnectionString: azuriteConnString,
		},
		Version: "0.1.0",
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Database == nil {
		t.Error("Database is nil")
	}
	if infra.Storage == nil {
		t.Error("Storage is nil")
	}
}

func TestNewDisabledSections(t *testing.T) {
	infra, err := infrastructure.New(&config.Config{Version: "0.1.0"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Database != nil {
		t.Error("Database should be nil when the section is disabled")
	}
	if infra.Storage != nil {
		t.Error("Storage should be nil when the section is disabled")
	}
	if infra.Connection() != nil {
		t.Error("Connection() should be nil when the database is disabled")
	}
	if err := infra.Start(); err != nil {
		t.Errorf("Start() error = %v, want nil with no enabled systems", err)
	}
}

func TestNewDatabaseConnection(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := infra.Database.Connection()
	if conn == nil {
		t.Fatal("Database.Connection() returned nil")
	}
	conn.Close()
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = "not-a-connection-string"

	_, err := infrastructure.New(cfg)
	if err == nil {
		t.Fatal("expected error for invalid storage connection string")
	}
}
