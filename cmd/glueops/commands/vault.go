package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GlueOps/glueops"
	"github.com/GlueOps/glueops/internal/config"
	"github.com/GlueOps/glueops/secret"
	"github.com/GlueOps/glueops/vault"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Secret store backends selectable with --backend.
const (
	BackendVault          = "vault"
	BackendSecretsManager = "secretsmanager"
)

type closeFunc func(ctx context.Context) error

// newSecretStore creates the secret store for the backend.
func newSecretStore(ctx context.Context, cfg *config.Config, backend string) (glueops.SecretStore, closeFunc, error) {
	settings, err := loadSettings(cfg)
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case BackendVault:
		s, err := vault.NewBasicSecretStore(settings.VaultOptions())
		if err != nil {
			return nil, nil, errors.Wrap(err, "creating Vault secret store")
		}
		return s, s.Close, nil
	case BackendSecretsManager:
		c, err := secret.NewBasicSecretsManagerClient(ctx, *settings.AWSOptions())
		if err != nil {
			return nil, nil, errors.Wrap(err, "creating Secrets Manager client")
		}
		s, err := secret.NewSecretsManagerStore(*secret.NewSecretsManagerStoreOptions().
			SetClient(c).
			SetPrefix(settings.AWS.SecretPrefix))
		if err != nil {
			return nil, nil, errors.Wrap(err, "creating Secrets Manager secret store")
		}
		return s, c.Close, nil
	default:
		return nil, nil, errors.Errorf("unrecognized secret store backend '%s'", backend)
	}
}

// NewVaultCommand returns the command to read and write secrets.
func NewVaultCommand(cfg *config.Config) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Read and write key-value secrets",
		Long: `Read and write key-value secrets in Vault (KV version 2) or AWS Secrets Manager.

Paths under the "secret/" mount may be given without the "data/" segment.`,
	}
	cmd.PersistentFlags().StringVar(&backend, "backend", BackendVault, "secret store backend (vault or secretsmanager)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "read PATH",
			Short: "Print the secret at PATH as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				store, closer, err := newSecretStore(ctx, cfg, backend)
				if err != nil {
					return err
				}
				defer func() { _ = closer(ctx) }()

				return runSecretRead(ctx, cmd, cfg, store, args[0])
			},
		},
		&cobra.Command{
			Use:   "write PATH KEY=VALUE...",
			Short: "Replace the secret at PATH with the given pairs",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := parseKeyValues(args[1:])
				if err != nil {
					return err
				}

				ctx := cmd.Context()
				store, closer, err := newSecretStore(ctx, cfg, backend)
				if err != nil {
					return err
				}
				defer func() { _ = closer(ctx) }()

				return runSecretWrite(ctx, cmd, cfg, store, args[0], data)
			},
		},
	)

	return cmd
}

func runSecretRead(ctx context.Context, cmd *cobra.Command, cfg *config.Config, store glueops.SecretStore, path string) error {
	data, err := store.Read(ctx, path)
	if err != nil {
		cfg.Log().Error("reading secret failed", zap.String("path", path), zap.Error(err))
		return errors.Wrapf(err, "reading secret '%s'", path)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding secret")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func runSecretWrite(ctx context.Context, cmd *cobra.Command, cfg *config.Config, store glueops.SecretStore, path string, data map[string]string) error {
	if err := store.Write(ctx, path, data); err != nil {
		cfg.Log().Error("writing secret failed", zap.String("path", path), zap.Error(err))
		return errors.Wrapf(err, "writing secret '%s'", path)
	}

	cfg.Log().Info("wrote secret", zap.String("path", path), zap.Strings("keys", sortedKeys(data)))
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %d keys to %s\n", len(data), path)
	return err
}
