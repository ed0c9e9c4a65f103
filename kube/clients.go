package kube

import (
	"context"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// Clients bundles the typed core API client with a dynamic client for custom
// resources.
type Clients struct {
	Core    kubernetes.Interface
	Dynamic dynamic.Interface
}

// NewClients creates API clients from a REST configuration. No request is
// made to the cluster.
func NewClients(cfg *rest.Config) (*Clients, error) {
	if cfg == nil {
		return nil, errors.New("must specify a REST configuration")
	}

	core, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating core client")
	}
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating dynamic client")
	}

	grip.Debug(message.Fields{
		"message": "created Kubernetes API clients",
		"host":    cfg.Host,
	})

	return &Clients{Core: core, Dynamic: dyn}, nil
}

// Setup loads the configuration for the current environment and creates the
// clients from it.
func Setup(opts *ConfigOptions) (*Clients, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	return NewClients(cfg)
}

// Ping checks that the core API is reachable and the credentials are
// accepted by listing at most one namespace.
func (c *Clients) Ping(ctx context.Context) error {
	if _, err := c.Core.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1}); err != nil {
		return errors.Wrap(err, "listing namespaces")
	}
	return nil
}
