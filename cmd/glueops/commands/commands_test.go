package commands

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GlueOps/glueops/internal/config"
	"github.com/GlueOps/glueops/internal/testutil"
	"github.com/GlueOps/glueops/mock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTestTimeout = 10 * time.Second

// execute runs the command with the arguments and returns what it wrote to
// stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestVaultCommand(t *testing.T) {
	newConfig := func(srv *testutil.VaultServer) *config.Config {
		return &config.Config{Settings: &config.Settings{
			Vault: config.VaultSettings{Address: srv.URL, Token: srv.Token},
		}}
	}

	t.Run("ReadPrintsSecretAsJSON", func(t *testing.T) {
		srv := testutil.NewVaultServer(t)
		srv.PutSecret("secret/data/app", map[string]interface{}{"user": "admin", "password": "hunter2"})

		out, err := execute(t, NewVaultCommand(newConfig(srv)), "", "read", "secret/app")
		require.NoError(t, err)

		var data map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &data))
		assert.Equal(t, map[string]string{"user": "admin", "password": "hunter2"}, data)
	})
	t.Run("WriteStoresPairs", func(t *testing.T) {
		srv := testutil.NewVaultServer(t)

		out, err := execute(t, NewVaultCommand(newConfig(srv)), "", "write", "secret/app", "user=admin", "dsn=postgres://h/db?sslmode=disable")
		require.NoError(t, err)
		assert.Contains(t, out, "wrote 2 keys")

		stored, ok := srv.Secret("secret/data/app")
		require.True(t, ok)
		assert.Equal(t, map[string]interface{}{"user": "admin", "dsn": "postgres://h/db?sslmode=disable"}, stored)
	})
	t.Run("WriteFailsWithInvalidPair", func(t *testing.T) {
		srv := testutil.NewVaultServer(t)

		_, err := execute(t, NewVaultCommand(newConfig(srv)), "", "write", "secret/app", "novalue")
		assert.Error(t, err)
		assert.Empty(t, srv.Requests())
	})
	t.Run("ReadFailsWithMissingSecret", func(t *testing.T) {
		srv := testutil.NewVaultServer(t)

		_, err := execute(t, NewVaultCommand(newConfig(srv)), "", "read", "secret/missing")
		assert.Error(t, err)
	})
	t.Run("FailsWithUnknownBackend", func(t *testing.T) {
		srv := testutil.NewVaultServer(t)

		_, err := execute(t, NewVaultCommand(newConfig(srv)), "", "read", "--backend", "etcd", "secret/app")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "etcd")
	})
	t.Run("FailsWithoutVaultAddress", func(t *testing.T) {
		cfg := &config.Config{Settings: &config.Settings{}}

		_, err := execute(t, NewVaultCommand(cfg), "", "read", "secret/app")
		assert.Error(t, err)
	})
	t.Run("ReadAndWriteWithAnySecretStore", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
		defer cancel()

		store := mock.NewSecretStore()
		cfg := &config.Config{}
		cmd := &cobra.Command{}
		var out bytes.Buffer
		cmd.SetOut(&out)

		require.NoError(t, runSecretWrite(ctx, cmd, cfg, store, "secret/app", map[string]string{"k": "v"}))
		out.Reset()
		require.NoError(t, runSecretRead(ctx, cmd, cfg, store, "secret/app"))
		assert.JSONEq(t, `{"k":"v"}`, out.String())
	})
}

func TestOutlineCommand(t *testing.T) {
	newConfig := func(srv *testutil.OutlineServer) *config.Config {
		return &config.Config{Settings: &config.Settings{
			Outline: config.OutlineSettings{URL: srv.URL, Token: srv.Token},
		}}
	}

	t.Run("ChildrenPrintsOneIDPerLine", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)
		parent := srv.AddDocument("", "parent", "")
		first := srv.AddDocument(parent, "a", "")
		second := srv.AddDocument(parent, "b", "")

		out, err := execute(t, NewOutlineCommand(newConfig(srv)), "", "children", parent)
		require.NoError(t, err)
		assert.Equal(t, first+"\n"+second+"\n", out)
	})
	t.Run("InfoPrintsID", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)
		id := srv.AddDocument("", "doc", "")

		out, err := execute(t, NewOutlineCommand(newConfig(srv)), "", "info", id)
		require.NoError(t, err)
		assert.Equal(t, id+"\n", out)
	})
	t.Run("UpdateReadsStdin", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)
		id := srv.AddDocument("", "doc", "old")

		_, err := execute(t, NewOutlineCommand(newConfig(srv)), "# New\n", "update", id, "--file", "-")
		require.NoError(t, err)

		doc, ok := srv.Document(id)
		require.True(t, ok)
		assert.Equal(t, "# New\n", doc.Text)
	})
	t.Run("UpdateReadsFile", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)
		id := srv.AddDocument("", "doc", "old")
		path := filepath.Join(t.TempDir(), "doc.md")
		require.NoError(t, os.WriteFile(path, []byte("from file"), 0600))

		_, err := execute(t, NewOutlineCommand(newConfig(srv)), "", "update", id, "-f", path)
		require.NoError(t, err)

		doc, ok := srv.Document(id)
		require.True(t, ok)
		assert.Equal(t, "from file", doc.Text)
	})
	t.Run("UpdateFailsWithoutInput", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)
		id := srv.AddDocument("", "doc", "old")

		_, err := execute(t, NewOutlineCommand(newConfig(srv)), "", "update", id)
		assert.Error(t, err)
		assert.Empty(t, srv.Requests())
	})
	t.Run("CreatePrintsNewID", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)
		parent := srv.AddDocument("", "parent", "")

		out, err := execute(t, NewOutlineCommand(newConfig(srv)), "body", "create", parent, "--title", "Runbook", "--file", "-")
		require.NoError(t, err)

		id := strings.TrimSpace(out)
		doc, ok := srv.Document(id)
		require.True(t, ok)
		assert.Equal(t, parent, doc.ParentID)
		assert.Equal(t, "Runbook", doc.Title)
		assert.Equal(t, "body", doc.Text)
	})
	t.Run("CreateFailsWithoutTitle", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)

		_, err := execute(t, NewOutlineCommand(newConfig(srv)), "", "create", "parent")
		assert.Error(t, err)
	})
	t.Run("DeleteRemovesDocument", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)
		id := srv.AddDocument("", "doc", "")

		_, err := execute(t, NewOutlineCommand(newConfig(srv)), "", "delete", id)
		require.NoError(t, err)

		_, ok := srv.Document(id)
		assert.False(t, ok)
	})
	t.Run("DeleteFailsWithMissingDocument", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)

		_, err := execute(t, NewOutlineCommand(newConfig(srv)), "", "delete", "missing")
		assert.Error(t, err)
	})
	t.Run("PruneDeletesAllChildren", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)
		parent := srv.AddDocument("", "parent", "")
		other := srv.AddDocument("", "other", "")
		var children []string
		for i := 0; i < 3; i++ {
			children = append(children, srv.AddDocument(parent, "child", ""))
		}
		unrelated := srv.AddDocument(other, "unrelated", "")

		out, err := execute(t, NewOutlineCommand(newConfig(srv)), "", "prune", parent)
		require.NoError(t, err)
		assert.Equal(t, "deleted 3 documents\n", out)

		for _, id := range children {
			_, ok := srv.Document(id)
			assert.False(t, ok, id)
		}
		_, ok := srv.Document(parent)
		assert.True(t, ok)
		_, ok = srv.Document(unrelated)
		assert.True(t, ok)
	})
	t.Run("PruneReportsPartialProgress", func(t *testing.T) {
		srv := testutil.NewOutlineServer(t)
		parent := srv.AddDocument("", "parent", "")
		srv.AddDocument(parent, "child", "")
		srv.FailMethods["documents.delete"] = 500

		_, err := execute(t, NewOutlineCommand(newConfig(srv)), "", "prune", parent)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after deleting 0")
	})
	t.Run("FailsWithoutOutlineURL", func(t *testing.T) {
		cfg := &config.Config{Settings: &config.Settings{}}

		_, err := execute(t, NewOutlineCommand(cfg), "", "info", "doc")
		assert.Error(t, err)
	})
}

func TestAWSCommand(t *testing.T) {
	t.Run("PrintsMatchingARNs", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
		defer cancel()

		c := &mock.TagClient{Resources: []mock.TaggedResource{
			{ARN: "arn:aws:s3:::logs", Type: "s3:bucket", Tags: map[string]string{"env": "prod"}},
			{ARN: "arn:aws:s3:::scratch", Type: "s3:bucket", Tags: map[string]string{"env": "dev"}},
			{ARN: "arn:aws:ec2:us-east-1:123456789012:instance/i-1", Type: "ec2:instance", Tags: map[string]string{"env": "prod"}},
		}}
		cmd := &cobra.Command{}
		var out bytes.Buffer
		cmd.SetOut(&out)

		require.NoError(t, runResources(ctx, cmd, c, map[string]string{"env": "prod"}, []string{"s3"}))
		assert.Equal(t, "arn:aws:s3:::logs\n", out.String())
	})
	t.Run("FailsWithoutTags", func(t *testing.T) {
		_, err := execute(t, NewAWSCommand(&config.Config{Settings: &config.Settings{}}), "", "resources")
		assert.Error(t, err)
	})
	t.Run("FailsWithInvalidTag", func(t *testing.T) {
		_, err := execute(t, NewAWSCommand(&config.Config{Settings: &config.Settings{}}), "", "resources", "--tag", "env")
		assert.Error(t, err)
	})
}

func TestCertCommand(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(0x1234),
		Subject:      pkix.Name{CommonName: "glueops-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))

	t.Run("ReadsStdinByDefault", func(t *testing.T) {
		out, err := execute(t, NewCertCommand(), certPEM, "serial")
		require.NoError(t, err)
		assert.Equal(t, "12:34\n", out)
	})
	t.Run("ReadsFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cert.pem")
		require.NoError(t, os.WriteFile(path, []byte(certPEM), 0600))

		out, err := execute(t, NewCertCommand(), "", "serial", "--file", path)
		require.NoError(t, err)
		assert.Equal(t, "12:34\n", out)
	})
	t.Run("FailsWithInvalidPEM", func(t *testing.T) {
		_, err := execute(t, NewCertCommand(), "garbage", "serial")
		assert.Error(t, err)
	})
}

func TestChecksumCommand(t *testing.T) {
	out, err := execute(t, NewChecksumCommand(), "", "crc32", "hello")
	require.NoError(t, err)
	assert.Equal(t, "0x3610a686\n", out)

	out, err = execute(t, NewChecksumCommand(), "", "sha224", "abc")
	require.NoError(t, err)
	assert.Equal(t, "23097d223405d8228642a477bda255b32aadbce4bda0b3f7e36c9da7\n", out)

	_, err = execute(t, NewChecksumCommand(), "", "crc32")
	assert.Error(t, err)
}

func TestKubeCommand(t *testing.T) {
	t.Run("FailsWithMissingKubeconfig", func(t *testing.T) {
		t.Setenv("KUBERNETES_SERVICE_HOST", "")
		cfg := &config.Config{Settings: &config.Settings{
			Kubernetes: config.KubernetesSettings{Kubeconfig: filepath.Join(t.TempDir(), "missing")},
		}}

		_, err := execute(t, NewKubeCommand(cfg), "", "ping")
		assert.Error(t, err)
	})
}

func TestConfigureLogging(t *testing.T) {
	t.Run("UsesConfiguredLevel", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := &config.Config{Settings: &config.Settings{Log: config.LogSettings{Level: "INFO"}}}
		require.NoError(t, ConfigureLogging(cfg, &buf))
		require.NotNil(t, cfg.Logger)

		cfg.Logger.Info("hello")
		cfg.Logger.Debug("hidden")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
		assert.Equal(t, "hello", entry["message"])
		assert.Equal(t, LoggerName, entry["name"])
	})
	t.Run("FailsWithInvalidLevel", func(t *testing.T) {
		cfg := &config.Config{Settings: &config.Settings{Log: config.LogSettings{Level: "LOUD"}}}
		assert.Error(t, ConfigureLogging(cfg, &bytes.Buffer{}))
	})
}

func TestParseKeyValues(t *testing.T) {
	kvs, err := parseKeyValues([]string{"a=1", "b=", "c=x=y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "", "c": "x=y"}, kvs)

	_, err = parseKeyValues([]string{"=1"})
	assert.Error(t, err)
	_, err = parseKeyValues([]string{"missing"})
	assert.Error(t, err)
}
