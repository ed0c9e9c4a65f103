/*
Package mock provides mock implementations of interfaces for testing purposes.

The SecretStore and DocumentClient keep their state in memory. The
SecretsManagerClient and TagClient share the fake GlobalSecretCache, so secrets
created through one can be found by their tags through the other. Every mock
records its inputs and lets tests override its outputs.
*/
package mock
