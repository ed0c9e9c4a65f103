package mock

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/evergreen-ci/utility"
)

// StoredSecret is a representation of a secret kept in the global secret
// storage cache.
type StoredSecret struct {
	// For the sake of simplicity, the secret ARN is synonymous with the secret
	// name.
	Name         string
	Value        string
	BinaryValue  []byte
	Version      int
	IsDeleted    bool
	Created      time.Time
	LastUpdated  time.Time
	LastAccessed time.Time
	Deleted      time.Time
	Tags         map[string]string
}

func newStoredSecret(in *secretsmanager.CreateSecretInput, ts time.Time) StoredSecret {
	return StoredSecret{
		Name:         utility.FromStringPtr(in.Name),
		Value:        utility.FromStringPtr(in.SecretString),
		BinaryValue:  in.SecretBinary,
		Version:      1,
		Created:      ts,
		LastUpdated:  ts,
		LastAccessed: ts,
		Tags:         newSecretsManagerTags(in.Tags),
	}
}

func newSecretsManagerTags(tags []types.Tag) map[string]string {
	converted := map[string]string{}
	for _, t := range tags {
		converted[utility.FromStringPtr(t.Key)] = utility.FromStringPtr(t.Value)
	}
	return converted
}

func (s StoredSecret) versionID() *string {
	return utility.ToStringPtr(strconv.Itoa(s.Version))
}

var globalSecretCacheMu sync.Mutex

// GlobalSecretCache is a global secret storage cache that provides a simplified
// in-memory implementation of a secrets storage service. This can be used
// indirectly with the SecretsManagerClient to access and modify secrets, or
// used directly.
var GlobalSecretCache map[string]StoredSecret

func init() {
	ResetGlobalSecretCache()
}

// ResetGlobalSecretCache resets the global fake secret storage cache to an
// initialized but clean state.
func ResetGlobalSecretCache() {
	globalSecretCacheMu.Lock()
	defer globalSecretCacheMu.Unlock()
	GlobalSecretCache = map[string]StoredSecret{}
}

// SecretsManagerClient provides a mock implementation of a
// glueops.SecretsManagerClient. This makes it possible to introspect on inputs
// to the client and control the client's output. It provides some default
// implementations where possible. By default, it will issue the API calls to
// the fake GlobalSecretCache.
type SecretsManagerClient struct {
	CreateSecretInput  *secretsmanager.CreateSecretInput
	CreateSecretOutput *secretsmanager.CreateSecretOutput
	CreateSecretError  error

	GetSecretValueInput  *secretsmanager.GetSecretValueInput
	GetSecretValueOutput *secretsmanager.GetSecretValueOutput
	GetSecretValueError  error

	PutSecretValueInput  *secretsmanager.PutSecretValueInput
	PutSecretValueOutput *secretsmanager.PutSecretValueOutput
	PutSecretValueError  error

	DeleteSecretInput  *secretsmanager.DeleteSecretInput
	DeleteSecretOutput *secretsmanager.DeleteSecretOutput
	DeleteSecretError  error

	CloseError error
}

// CreateSecret saves the input options and returns a new mock secret. The mock
// output can be customized. By default, it will create and save a cached mock
// secret based on the input in the global secret cache.
func (c *SecretsManagerClient) CreateSecret(ctx context.Context, in *secretsmanager.CreateSecretInput) (*secretsmanager.CreateSecretOutput, error) {
	c.CreateSecretInput = in

	if c.CreateSecretOutput != nil || c.CreateSecretError != nil {
		return c.CreateSecretOutput, c.CreateSecretError
	}

	if in.Name == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("missing secret name")}
	}
	if in.SecretBinary != nil && in.SecretString != nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("cannot specify both secret binary and secret string")}
	}
	if in.SecretBinary == nil && in.SecretString == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("must specify either secret binary or secret string")}
	}

	globalSecretCacheMu.Lock()
	defer globalSecretCacheMu.Unlock()

	name := utility.FromStringPtr(in.Name)
	if s, ok := GlobalSecretCache[name]; ok && !s.IsDeleted {
		return nil, &types.ResourceExistsException{Message: utility.ToStringPtr("secret already exists")}
	}

	newSecret := newStoredSecret(in, time.Now())
	GlobalSecretCache[newSecret.Name] = newSecret

	return &secretsmanager.CreateSecretOutput{
		ARN:       utility.ToStringPtr(newSecret.Name),
		Name:      utility.ToStringPtr(newSecret.Name),
		VersionId: newSecret.versionID(),
	}, nil
}

// GetSecretValue saves the input options and returns an existing mock secret's
// value. The mock output can be customized. By default, it will return a cached
// mock secret if it exists in the global secret cache.
func (c *SecretsManagerClient) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
	c.GetSecretValueInput = in

	if c.GetSecretValueOutput != nil || c.GetSecretValueError != nil {
		return c.GetSecretValueOutput, c.GetSecretValueError
	}

	if in.SecretId == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("missing secret ID")}
	}

	globalSecretCacheMu.Lock()
	defer globalSecretCacheMu.Unlock()

	id := utility.FromStringPtr(in.SecretId)
	s, ok := GlobalSecretCache[id]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: utility.ToStringPtr("secret not found")}
	}
	if s.IsDeleted {
		return nil, &types.InvalidRequestException{Message: utility.ToStringPtr("secret is deleted")}
	}

	s.LastAccessed = time.Now()
	GlobalSecretCache[id] = s

	out := &secretsmanager.GetSecretValueOutput{
		ARN:          utility.ToStringPtr(s.Name),
		Name:         utility.ToStringPtr(s.Name),
		SecretBinary: s.BinaryValue,
		CreatedDate:  utility.ToTimePtr(s.Created),
		VersionId:    s.versionID(),
	}
	if s.BinaryValue == nil {
		out.SecretString = utility.ToStringPtr(s.Value)
	}

	return out, nil
}

// PutSecretValue saves the input options and stores a new version of an
// existing mock secret's value. The mock output can be customized. By default,
// it will update the cached mock secret in the global secret cache.
func (c *SecretsManagerClient) PutSecretValue(ctx context.Context, in *secretsmanager.PutSecretValueInput) (*secretsmanager.PutSecretValueOutput, error) {
	c.PutSecretValueInput = in

	if c.PutSecretValueOutput != nil || c.PutSecretValueError != nil {
		return c.PutSecretValueOutput, c.PutSecretValueError
	}

	if in.SecretId == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("missing secret ID")}
	}
	if in.SecretBinary != nil && in.SecretString != nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("cannot specify both secret binary and secret string")}
	}
	if in.SecretBinary == nil && in.SecretString == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("must specify either secret binary or secret string")}
	}

	globalSecretCacheMu.Lock()
	defer globalSecretCacheMu.Unlock()

	id := utility.FromStringPtr(in.SecretId)
	s, ok := GlobalSecretCache[id]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: utility.ToStringPtr("secret not found")}
	}
	if s.IsDeleted {
		return nil, &types.InvalidRequestException{Message: utility.ToStringPtr("secret is deleted")}
	}

	s.Value = utility.FromStringPtr(in.SecretString)
	s.BinaryValue = in.SecretBinary
	s.Version++
	s.LastUpdated = time.Now()
	GlobalSecretCache[id] = s

	return &secretsmanager.PutSecretValueOutput{
		ARN:       utility.ToStringPtr(s.Name),
		Name:      utility.ToStringPtr(s.Name),
		VersionId: s.versionID(),
	}, nil
}

// DeleteSecret saves the input options and deletes an existing mock secret.
// The mock output can be customized. By default, it will mark the cached mock
// secret as deleted, or remove it entirely if recovery is skipped.
func (c *SecretsManagerClient) DeleteSecret(ctx context.Context, in *secretsmanager.DeleteSecretInput) (*secretsmanager.DeleteSecretOutput, error) {
	c.DeleteSecretInput = in

	if c.DeleteSecretOutput != nil || c.DeleteSecretError != nil {
		return c.DeleteSecretOutput, c.DeleteSecretError
	}

	if in.SecretId == nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("missing secret ID")}
	}
	if utility.FromBoolPtr(in.ForceDeleteWithoutRecovery) && in.RecoveryWindowInDays != nil {
		return nil, &types.InvalidParameterException{Message: utility.ToStringPtr("cannot force delete without recovery and also schedule a recovery window")}
	}

	globalSecretCacheMu.Lock()
	defer globalSecretCacheMu.Unlock()

	id := utility.FromStringPtr(in.SecretId)
	s, ok := GlobalSecretCache[id]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: utility.ToStringPtr("secret not found")}
	}

	ts := time.Now()
	if utility.FromBoolPtr(in.ForceDeleteWithoutRecovery) {
		delete(GlobalSecretCache, id)
	} else {
		s.IsDeleted = true
		s.Deleted = ts
		GlobalSecretCache[id] = s
	}

	return &secretsmanager.DeleteSecretOutput{
		ARN:          utility.ToStringPtr(s.Name),
		Name:         utility.ToStringPtr(s.Name),
		DeletionDate: utility.ToTimePtr(ts),
	}, nil
}

// Close closes the mock client. The mock output can be customized. By default,
// it is a no-op that returns no error.
func (c *SecretsManagerClient) Close(ctx context.Context) error {
	if c.CloseError != nil {
		return c.CloseError
	}

	return nil
}
