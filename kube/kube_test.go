package kube

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/rest"
	k8stesting "k8s.io/client-go/testing"
)

const defaultTestTimeout = 10 * time.Second

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: primary
  cluster:
    server: https://127.0.0.1:6443
    insecure-skip-tls-verify: true
- name: secondary
  cluster:
    server: https://10.1.2.3:6443
    insecure-skip-tls-verify: true
users:
- name: operator
  user:
    token: operator-token
contexts:
- name: primary
  context:
    cluster: primary
    user: operator
- name: secondary
  context:
    cluster: secondary
    user: operator
current-context: primary
`

func writeKubeconfig(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("UsesKubeconfigOutsideCluster", func(t *testing.T) {
		t.Setenv(ServiceHostEnvVar, "")
		assert.False(t, InCluster())

		cfg, err := LoadConfig(NewConfigOptions().SetKubeconfigPath(writeKubeconfig(t)))
		require.NoError(t, err)
		assert.Equal(t, "https://127.0.0.1:6443", cfg.Host)
		assert.Equal(t, "operator-token", cfg.BearerToken)
	})
	t.Run("SelectsContext", func(t *testing.T) {
		t.Setenv(ServiceHostEnvVar, "")

		cfg, err := LoadConfig(NewConfigOptions().SetKubeconfigPath(writeKubeconfig(t)).SetContext("secondary"))
		require.NoError(t, err)
		assert.Equal(t, "https://10.1.2.3:6443", cfg.Host)
	})
	t.Run("FailsWithMissingKubeconfig", func(t *testing.T) {
		t.Setenv(ServiceHostEnvVar, "")

		cfg, err := LoadConfig(NewConfigOptions().SetKubeconfigPath(filepath.Join(t.TempDir(), "missing")))
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
	t.Run("FailsWithUnknownContext", func(t *testing.T) {
		t.Setenv(ServiceHostEnvVar, "")

		_, err := LoadConfig(NewConfigOptions().SetKubeconfigPath(writeKubeconfig(t)).SetContext("nonexistent"))
		assert.Error(t, err)
	})
	t.Run("UsesInClusterConfigWhenServiceHostIsSet", func(t *testing.T) {
		if _, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount/token"); err == nil {
			t.Skip("running inside a cluster")
		}
		t.Setenv(ServiceHostEnvVar, "10.0.0.1")
		t.Setenv("KUBERNETES_SERVICE_PORT", "443")
		assert.True(t, InCluster())

		// The kubeconfig would load, so an error shows the in-cluster path
		// was taken.
		cfg, err := LoadConfig(NewConfigOptions().SetKubeconfigPath(writeKubeconfig(t)))
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestNewClients(t *testing.T) {
	t.Run("CreatesClientsWithoutContactingCluster", func(t *testing.T) {
		clients, err := NewClients(&rest.Config{Host: "https://127.0.0.1:6443", BearerToken: "token"})
		require.NoError(t, err)
		assert.NotNil(t, clients.Core)
		assert.NotNil(t, clients.Dynamic)
	})
	t.Run("FailsWithNilConfig", func(t *testing.T) {
		clients, err := NewClients(nil)
		assert.Error(t, err)
		assert.Nil(t, clients)
	})
	t.Run("SetupFromKubeconfig", func(t *testing.T) {
		t.Setenv(ServiceHostEnvVar, "")

		clients, err := Setup(NewConfigOptions().SetKubeconfigPath(writeKubeconfig(t)))
		require.NoError(t, err)
		assert.NotNil(t, clients.Core)
	})
	t.Run("SetupPropagatesLoadError", func(t *testing.T) {
		t.Setenv(ServiceHostEnvVar, "")

		_, err := Setup(NewConfigOptions().SetKubeconfigPath(filepath.Join(t.TempDir(), "missing")))
		assert.Error(t, err)
	})
}

func TestPing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	t.Run("SucceedsWhenNamespacesAreListable", func(t *testing.T) {
		core := fake.NewSimpleClientset(&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}})
		c := &Clients{Core: core}
		assert.NoError(t, c.Ping(ctx))
	})
	t.Run("FailsWhenListIsRejected", func(t *testing.T) {
		core := fake.NewSimpleClientset()
		core.PrependReactor("list", "namespaces", func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, errors.New("forbidden")
		})
		c := &Clients{Core: core}
		err := c.Ping(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "forbidden")
	})
}
