// Package config loads the glueops CLI settings from a YAML file and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/GlueOps/glueops/awsutil"
	"github.com/GlueOps/glueops/kube"
	"github.com/GlueOps/glueops/logging"
	"github.com/GlueOps/glueops/outline"
	"github.com/GlueOps/glueops/vault"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the settings file looked up in the home directory when
// no path is given.
const DefaultFileName = ".glueops.yaml"

// Environment variables that override file settings.
const (
	EnvVaultAddr       = "VAULT_ADDR"
	EnvVaultToken      = "VAULT_TOKEN"
	EnvVaultRole       = "VAULT_ROLE"
	EnvVaultCookie     = "VAULT_SESSION_COOKIE"
	EnvVaultSkipVerify = "VAULT_SKIP_VERIFY"
	EnvOutlineURL      = "OUTLINE_API_URL"
	EnvOutlineToken    = "OUTLINE_API_TOKEN"
	EnvAWSRegion       = "AWS_REGION"
	EnvAWSRole         = "AWS_ROLE_ARN"
	EnvAWSSecretPrefix = "AWS_SECRET_PREFIX"
	EnvLogLevel        = "LOG_LEVEL"
)

// Config holds the command-line state shared by every command.
type Config struct {
	// Path is the settings file. If empty, DefaultFileName in the home
	// directory is used if it exists.
	Path string
	// LogLevel overrides the log level from the file and environment.
	LogLevel string
	// Settings is populated by Load.
	Settings *Settings
	// Logger is the command logger. It is nil until logging is configured.
	Logger *zap.Logger
}

// Log returns the command logger, or a no-op logger if logging has not been
// configured.
func (c *Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Settings is the layout of the settings file.
type Settings struct {
	Vault      VaultSettings      `yaml:"vault"`
	Outline    OutlineSettings    `yaml:"outline"`
	AWS        AWSSettings        `yaml:"aws"`
	Kubernetes KubernetesSettings `yaml:"kubernetes"`
	Log        LogSettings        `yaml:"log"`
}

// VaultSettings configure the secret store.
type VaultSettings struct {
	Address            string `yaml:"address"`
	Token              string `yaml:"token"`
	Role               string `yaml:"role"`
	SessionCookie      string `yaml:"session_cookie"`
	IdentityTokenPath  string `yaml:"identity_token_path"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// OutlineSettings configure the document API client.
type OutlineSettings struct {
	URL      string `yaml:"url"`
	Token    string `yaml:"token"`
	PageSize int    `yaml:"page_size"`
}

// AWSSettings configure AWS clients.
type AWSSettings struct {
	Region       string `yaml:"region"`
	Role         string `yaml:"role"`
	SecretPrefix string `yaml:"secret_prefix"`
	Tracing      bool   `yaml:"tracing"`
}

// KubernetesSettings locate Kubernetes credentials outside a cluster.
type KubernetesSettings struct {
	Kubeconfig string `yaml:"kubeconfig"`
	Context    string `yaml:"context"`
}

// LogSettings configure logging.
type LogSettings struct {
	Level string `yaml:"level"`
}

// Load reads the settings file and applies environment and flag overrides.
// A missing file is only an error when its path was given explicitly.
func (c *Config) Load() error {
	path, explicit := c.Path, c.Path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, DefaultFileName)
		}
	}

	settings := &Settings{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, settings); err != nil {
				return errors.Wrapf(err, "parsing settings file '%s'", path)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return errors.Wrapf(err, "reading settings file '%s'", path)
		}
	}

	if err := settings.applyEnv(); err != nil {
		return err
	}
	if c.LogLevel != "" {
		settings.Log.Level = c.LogLevel
	}
	if settings.Log.Level == "" {
		settings.Log.Level = logging.LevelInfo
	}
	if _, err := logging.ParseLevel(settings.Log.Level); err != nil {
		return errors.Wrap(err, "invalid log level")
	}

	c.Settings = settings
	return nil
}

func (s *Settings) applyEnv() error {
	for env, dst := range map[string]*string{
		EnvVaultAddr:       &s.Vault.Address,
		EnvVaultToken:      &s.Vault.Token,
		EnvVaultRole:       &s.Vault.Role,
		EnvVaultCookie:     &s.Vault.SessionCookie,
		EnvOutlineURL:      &s.Outline.URL,
		EnvOutlineToken:    &s.Outline.Token,
		EnvAWSRegion:       &s.AWS.Region,
		EnvAWSRole:         &s.AWS.Role,
		EnvAWSSecretPrefix: &s.AWS.SecretPrefix,
		EnvLogLevel:        &s.Log.Level,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvVaultSkipVerify); ok && v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvVaultSkipVerify)
		}
		s.Vault.InsecureSkipVerify = skip
	}

	return nil
}

// VaultOptions returns options for the Vault secret store.
func (s *Settings) VaultOptions() *vault.BasicSecretStoreOptions {
	opts := vault.NewBasicSecretStoreOptions().
		SetEndpoint(s.Vault.Address).
		SetInsecureSkipVerify(s.Vault.InsecureSkipVerify)
	if s.Vault.Token != "" {
		opts.SetToken(s.Vault.Token)
	}
	if s.Vault.Role != "" {
		opts.SetRole(s.Vault.Role)
	}
	if s.Vault.SessionCookie != "" {
		opts.SetSessionCookie(s.Vault.SessionCookie)
	}
	if s.Vault.IdentityTokenPath != "" {
		opts.SetIdentityTokenPath(s.Vault.IdentityTokenPath)
	}
	return opts
}

// OutlineOptions returns options for the document API client.
func (s *Settings) OutlineOptions() *outline.BasicDocumentClientOptions {
	opts := outline.NewBasicDocumentClientOptions().
		SetBaseURL(s.Outline.URL).
		SetToken(s.Outline.Token)
	if s.Outline.PageSize != 0 {
		opts.SetPageSize(s.Outline.PageSize)
	}
	return opts
}

// AWSOptions returns options for AWS clients.
func (s *Settings) AWSOptions() *awsutil.ClientOptions {
	opts := awsutil.NewClientOptions().
		SetRegion(s.AWS.Region).
		SetTracing(s.AWS.Tracing)
	if s.AWS.Role != "" {
		opts.SetRole(s.AWS.Role)
	}
	return opts
}

// KubeOptions returns options to locate Kubernetes credentials.
func (s *Settings) KubeOptions() *kube.ConfigOptions {
	opts := kube.NewConfigOptions()
	if s.Kubernetes.Kubeconfig != "" {
		opts.SetKubeconfigPath(s.Kubernetes.Kubeconfig)
	}
	if s.Kubernetes.Context != "" {
		opts.SetContext(s.Kubernetes.Context)
	}
	return opts
}
