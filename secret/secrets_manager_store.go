package secret

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/GlueOps/glueops"
	"github.com/GlueOps/glueops/awsutil"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// SecretsManagerStoreOptions are options to create a SecretsManagerStore.
type SecretsManagerStoreOptions struct {
	// Client is the Secrets Manager client used to access secrets.
	Client glueops.SecretsManagerClient
	// Prefix is prepended to every secret path to form the secret name.
	Prefix *string
	// Tags are added to secrets that the store creates.
	Tags map[string]string
}

// NewSecretsManagerStoreOptions returns new uninitialized options to create a
// SecretsManagerStore.
func NewSecretsManagerStoreOptions() *SecretsManagerStoreOptions {
	return &SecretsManagerStoreOptions{}
}

// SetClient sets the Secrets Manager client.
func (o *SecretsManagerStoreOptions) SetClient(c glueops.SecretsManagerClient) *SecretsManagerStoreOptions {
	o.Client = c
	return o
}

// SetPrefix sets the prefix for secret names.
func (o *SecretsManagerStoreOptions) SetPrefix(prefix string) *SecretsManagerStoreOptions {
	o.Prefix = &prefix
	return o
}

// SetTags sets the tags for created secrets.
func (o *SecretsManagerStoreOptions) SetTags(tags map[string]string) *SecretsManagerStoreOptions {
	o.Tags = tags
	return o
}

// Validate checks that the required options are given.
func (o *SecretsManagerStoreOptions) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(o.Client == nil, "must specify a Secrets Manager client")
	return catcher.Resolve()
}

// SecretsManagerStore provides a glueops.SecretStore implementation backed by
// Secrets Manager. Each path names one secret whose string value is a JSON
// object of the key-value pairs.
type SecretsManagerStore struct {
	client glueops.SecretsManagerClient
	prefix string
	tags   map[string]string
}

// NewSecretsManagerStore creates a new store from the given options.
func NewSecretsManagerStore(opts SecretsManagerStoreOptions) (*SecretsManagerStore, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	return &SecretsManagerStore{
		client: opts.Client,
		prefix: utility.FromStringPtr(opts.Prefix),
		tags:   opts.Tags,
	}, nil
}

func (s *SecretsManagerStore) secretName(path string) string {
	return s.prefix + strings.TrimPrefix(path, "/")
}

// Read returns the key-value pairs stored in the secret.
func (s *SecretsManagerStore) Read(ctx context.Context, path string) (map[string]string, error) {
	name := s.secretName(path)

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: utility.ToStringPtr(name),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "reading secret '%s'", name)
	}
	if out == nil || out.SecretString == nil {
		return nil, errors.Wrapf(glueops.NewMalformedResponseError("secret has no string value", nil), "reading secret '%s'", name)
	}

	data, err := decodeSecretString(*out.SecretString)
	if err != nil {
		return nil, errors.Wrapf(err, "reading secret '%s'", name)
	}

	grip.Debug(message.Fields{
		"message":  "read secret from Secrets Manager",
		"name":     name,
		"num_keys": len(data),
	})

	return data, nil
}

// Write replaces the key-value pairs stored in the secret, creating the secret
// if it does not exist.
func (s *SecretsManagerStore) Write(ctx context.Context, path string, data map[string]string) error {
	name := s.secretName(path)

	if data == nil {
		data = map[string]string{}
	}
	value, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding secret data")
	}

	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     utility.ToStringPtr(name),
		SecretString: utility.ToStringPtr(string(value)),
	})
	if err == nil {
		grip.Debug(message.Fields{
			"message":  "updated secret in Secrets Manager",
			"name":     name,
			"num_keys": len(data),
		})
		return nil
	}
	if awsutil.ErrorCode(err) != "ResourceNotFoundException" {
		return errors.Wrapf(err, "writing secret '%s'", name)
	}

	if _, err := s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         utility.ToStringPtr(name),
		SecretString: utility.ToStringPtr(string(value)),
		Tags:         exportTags(s.tags),
	}); err != nil {
		return errors.Wrapf(err, "creating secret '%s'", name)
	}

	grip.Info(message.Fields{
		"message":  "created secret in Secrets Manager",
		"name":     name,
		"num_keys": len(data),
	})

	return nil
}

func exportTags(tags map[string]string) []types.Tag {
	var exported []types.Tag
	for k, v := range tags {
		exported = append(exported, types.Tag{
			Key:   utility.ToStringPtr(k),
			Value: utility.ToStringPtr(v),
		})
	}
	return exported
}

// decodeSecretString decodes a JSON object secret value. Values that are not
// strings are kept as their JSON text.
func decodeSecretString(value string) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(value)))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, glueops.NewMalformedResponseError("decoding secret value as a JSON object", err)
	}
	if raw == nil {
		return nil, glueops.NewMalformedResponseError("secret value is not a JSON object", nil)
	}

	data := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			data[k] = s
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, glueops.NewMalformedResponseError("encoding value of key '"+k+"'", err)
		}
		data[k] = string(b)
	}

	return data, nil
}
