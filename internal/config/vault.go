package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/vault-client-go"
	"github.com/hashicorp/vault-client-go/schema"
)

// ApplyVaultSecrets overlays jwt_secret and smtp_password from the configured
// KV v2 secret. It is a no-op when Vault is not configured. AppRole login is
// used when both ids are set, otherwise VAULT_TOKEN.
func ApplyVaultSecrets(ctx context.Context, cfg *Config) error {
	if !cfg.Vault.Enabled() {
		return nil
	}

	client, err := vault.New(
		vault.WithAddress(cfg.Vault.Address),
		vault.WithRequestTimeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("config.ApplyVaultSecrets: client: %w", err)
	}

	switch {
	case cfg.Vault.RoleID != "" && cfg.Vault.SecretID != "":
		resp, err := client.Auth.AppRoleLogin(ctx, schema.AppRoleLoginRequest{
			RoleId:   cfg.Vault.RoleID,
			SecretId: cfg.Vault.SecretID,
		})
		if err != nil {
			return fmt.Errorf("config.ApplyVaultSecrets: approle login: %w", err)
		}
		if err := client.SetToken(resp.Auth.ClientToken); err != nil {
			return fmt.Errorf("config.ApplyVaultSecrets: set token: %w", err)
		}
	case cfg.Vault.Token != "":
		if err := client.SetToken(cfg.Vault.Token); err != nil {
			return fmt.Errorf("config.ApplyVaultSecrets: set token: %w", err)
		}
	default:
		return errors.New("config.ApplyVaultSecrets: VAULT_TOKEN or VAULT_ROLE_ID/VAULT_SECRET_ID required")
	}

	secret, err := client.Secrets.KvV2Read(ctx, cfg.Vault.Path, vault.WithMountPath(cfg.Vault.Mount))
	if err != nil {
		return fmt.Errorf("config.ApplyVaultSecrets: read %s/%s: %w", cfg.Vault.Mount, cfg.Vault.Path, err)
	}
	return applySecrets(cfg, secret.Data.Data)
}

func applySecrets(cfg *Config, data map[string]any) error {
	if s, ok := data["jwt_secret"].(string); ok && s != "" {
		cfg.JWT.Secret = s
	}
	if s, ok := data["smtp_password"].(string); ok && s != "" {
		cfg.Mail.SMTPPassword = s
	}
	if cfg.JWT.Secret == "" {
		return errors.New("config.ApplyVaultSecrets: jwt_secret missing from vault and JWT_SECRET unset")
	}
	return nil
}
