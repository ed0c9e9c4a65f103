/*
Package secret provides a glueops.SecretStore backed by AWS Secrets Manager.

BasicSecretsManagerClient is a convenience wrapper around the Secrets Manager
API that retries failed requests. SecretsManagerStore builds on any
glueops.SecretsManagerClient to store each secret's key-value pairs as a JSON
object in the secret string, so the same callers can use either Vault or
Secrets Manager.
*/
package secret
