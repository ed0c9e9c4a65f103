// Package kube bootstraps Kubernetes API clients from either the in-cluster
// service account or a local kubeconfig.
package kube

import (
	"os"

	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ServiceHostEnvVar is set by Kubernetes in every pod. Its presence selects
// the in-cluster configuration.
const ServiceHostEnvVar = "KUBERNETES_SERVICE_HOST"

// ConfigOptions represent options to locate Kubernetes credentials.
type ConfigOptions struct {
	// KubeconfigPath is an explicit kubeconfig file. If unset, the standard
	// loading rules apply ($KUBECONFIG, then ~/.kube/config).
	KubeconfigPath *string
	// Context selects a kubeconfig context other than the current one.
	Context *string
}

// NewConfigOptions returns new uninitialized options.
func NewConfigOptions() *ConfigOptions {
	return &ConfigOptions{}
}

// SetKubeconfigPath sets an explicit kubeconfig file.
func (o *ConfigOptions) SetKubeconfigPath(path string) *ConfigOptions {
	o.KubeconfigPath = &path
	return o
}

// SetContext sets the kubeconfig context.
func (o *ConfigOptions) SetContext(name string) *ConfigOptions {
	o.Context = &name
	return o
}

// InCluster reports whether the process runs inside a Kubernetes pod.
func InCluster() bool {
	return os.Getenv(ServiceHostEnvVar) != ""
}

// LoadConfig returns the REST configuration for the current environment. The
// in-cluster configuration is used when running in a pod, and the kubeconfig
// otherwise.
func LoadConfig(opts *ConfigOptions) (*rest.Config, error) {
	if opts == nil {
		opts = NewConfigOptions()
	}

	if InCluster() {
		grip.Info(message.Fields{
			"message": "loading in-cluster Kubernetes configuration",
			"env_var": ServiceHostEnvVar,
		})
		cfg, err := rest.InClusterConfig()
		if err != nil {
			grip.Error(message.WrapError(err, message.Fields{
				"message": "could not load in-cluster Kubernetes configuration",
			}))
			return nil, errors.Wrap(err, "loading in-cluster configuration")
		}
		return cfg, nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path := utility.FromStringPtr(opts.KubeconfigPath); path != "" {
		rules.ExplicitPath = path
	}
	overrides := &clientcmd.ConfigOverrides{}
	if kctx := utility.FromStringPtr(opts.Context); kctx != "" {
		overrides.CurrentContext = kctx
	}

	grip.Info(message.Fields{
		"message":    "loading local kubeconfig",
		"kubeconfig": utility.FromStringPtr(opts.KubeconfigPath),
		"context":    utility.FromStringPtr(opts.Context),
	})

	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		grip.Error(message.WrapError(err, message.Fields{
			"message": "could not load kubeconfig",
		}))
		return nil, errors.Wrap(err, "loading kubeconfig")
	}

	return cfg, nil
}
