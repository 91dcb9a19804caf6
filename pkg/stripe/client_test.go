package stripe

import (
	"context"
	"testing"

	"github.com/angelmondragon/payportal-backend/pkg/config"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{Env: "test"}, nil)
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestNewClientValidatesKeyAgainstEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{name: "test env with test key", cfg: config.StripeConfig{APIKey: "sk_test_123", Env: "test"}},
		{name: "test env with restricted key", cfg: config.StripeConfig{APIKey: "rk_test_123", Env: "test"}},
		{name: "live env with live key", cfg: config.StripeConfig{APIKey: "sk_live_123", Env: "live"}},
		{name: "test env with live key", cfg: config.StripeConfig{APIKey: "sk_live_123", Env: "test"}, wantErr: true},
		{name: "live env with test key", cfg: config.StripeConfig{APIKey: "sk_test_123", Env: "live"}, wantErr: true},
		{name: "unknown env", cfg: config.StripeConfig{APIKey: "sk_test_123", Env: "staging"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.API() == nil {
				t.Fatal("expected underlying api client")
			}
		})
	}
}

func TestNewClientDefaultsToTestEnvironment(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_123"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Environment() != "test" {
		t.Fatalf("expected test environment, got %q", client.Environment())
	}
}

func TestNilClientAccessors(t *testing.T) {
	var client *Client
	if client.API() != nil || client.Environment() != "" {
		t.Fatal("nil client accessors must be safe")
	}
}
