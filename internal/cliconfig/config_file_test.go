package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	emptyCmd := ""

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Mode:     "client",
				Port:     9000,
				Zeroconf: &trueVal,
				Server: ServerFileConfig{
					MaxClients:     4,
					ReceiveTimeout: "4s",
				},
				Client: ClientFileConfig{
					ServerAddress:  "10.0.0.2",
					QueueSize:      20,
					ReceiveTimeout: "1s",
					ReconnectDelay: "30s",
				},
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Mode:                 "client",
				Port:                 9000,
				Zeroconf:             true,
				MaxClients:           4,
				ServerReceiveTimeout: 4 * time.Second,
				ServerAddress:        "10.0.0.2",
				QueueSize:            20,
				ClientReceiveTimeout: time.Second,
				ReconnectDelay:       30 * time.Second,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Port:   9000,
				Client: ClientFileConfig{ServerAddress: "10.0.0.2"},
			},
			changed: map[string]bool{"port": true},
			initial: Config{Port: 7000},
			expected: Config{
				Port:          7000, // unchanged because flag was set
				ServerAddress: "10.0.0.2",
			},
		},
		{
			name:       "explicit empty sink command",
			fileConfig: FileConfig{Client: ClientFileConfig{SinkCommand: &emptyCmd}},
			changed:    map[string]bool{},
			initial:    Config{SinkCommand: "rngd -f -r /dev/stdin"},
			expected:   Config{},
		},
		{
			name:       "missing values keep the initial config",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    Config{Mode: "server", QueueSize: 10},
			expected:   Config{Mode: "server", QueueSize: 10},
		},
		{
			name:       "returns error for invalid server duration",
			fileConfig: FileConfig{Server: ServerFileConfig{ReceiveTimeout: "soon"}},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name:       "returns error for invalid client duration",
			fileConfig: FileConfig{Client: ClientFileConfig{DialTimeout: "5 sec"}},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "netrng.toml")

	tomlContent := `
mode = "client"
port = 8989
debug = true
zeroconf = false

[server]
listen_address = "192.168.1.2"
max_clients = 4
sample_size_bytes = 1024
hwrng_device = "/dev/hwrng"

[client]
server_address = "192.168.1.2"
queue_size = 16
heartbeat_pause = "2s"
sink_command = "rngd -f -r /dev/stdin"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Mode != "client" {
		t.Errorf("Mode = %v, want client", fc.Mode)
	}
	if fc.Port != 8989 {
		t.Errorf("Port = %v, want 8989", fc.Port)
	}
	if fc.Debug == nil || !*fc.Debug {
		t.Errorf("Debug = %v, want true", fc.Debug)
	}
	if fc.Zeroconf == nil || *fc.Zeroconf {
		t.Errorf("Zeroconf = %v, want false", fc.Zeroconf)
	}
	if fc.Server.ListenAddress != "192.168.1.2" {
		t.Errorf("Server.ListenAddress = %v, want 192.168.1.2", fc.Server.ListenAddress)
	}
	if fc.Server.MaxClients != 4 {
		t.Errorf("Server.MaxClients = %v, want 4", fc.Server.MaxClients)
	}
	if fc.Server.SampleSizeBytes != 1024 {
		t.Errorf("Server.SampleSizeBytes = %v, want 1024", fc.Server.SampleSizeBytes)
	}
	if fc.Client.QueueSize != 16 {
		t.Errorf("Client.QueueSize = %v, want 16", fc.Client.QueueSize)
	}
	if fc.Client.HeartbeatPause != "2s" {
		t.Errorf("Client.HeartbeatPause = %v, want 2s", fc.Client.HeartbeatPause)
	}
	if fc.Client.SinkCommand == nil || *fc.Client.SinkCommand != "rngd -f -r /dev/stdin" {
		t.Errorf("Client.SinkCommand = %v, want rngd -f -r /dev/stdin", fc.Client.SinkCommand)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/netrng.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
mode = "server"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}

func TestReconnectDelayAlone(t *testing.T) {
	for _, d := range []string{"2s", "30s"} {
		want, err := time.ParseDuration(d)
		if err != nil {
			t.Fatal(err)
		}

		t.Run("file "+d, func(t *testing.T) {
			cfg := DefaultConfig()
			fc := FileConfig{Client: ClientFileConfig{ReconnectDelay: d}}
			if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err != nil {
				t.Fatalf("ApplyFileConfig() error = %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if cfg.ReconnectDelay != want || cfg.ReconnectDelayMax != want {
				t.Errorf("ReconnectDelay, ReconnectDelayMax = %v, %v, want %v, %v",
					cfg.ReconnectDelay, cfg.ReconnectDelayMax, want, want)
			}
		})

		t.Run("env "+d, func(t *testing.T) {
			t.Setenv("NETRNG_RECONNECT_DELAY", d)
			cfg := DefaultConfig()
			if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
				t.Fatalf("ApplyEnvConfig() error = %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if cfg.ReconnectDelay != want || cfg.ReconnectDelayMax != want {
				t.Errorf("ReconnectDelay, ReconnectDelayMax = %v, %v, want %v, %v",
					cfg.ReconnectDelay, cfg.ReconnectDelayMax, want, want)
			}
		})
	}
}
