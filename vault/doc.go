/*
Package vault provides a glueops.SecretStore backed by the Vault HTTP API.

BasicSecretStore reads and writes versioned key-value secrets. Unless it is
given a token, it authenticates by exchanging the workload's Kubernetes service
account token at the Kubernetes auth login endpoint, then reuses the resulting
token for the rest of its lifetime.

Every response from the store is validated before it is used: a response
carrying a Location header is rejected as a redirect (which usually means an
authenticating proxy bounced the request to a login page), a non-2xx response is
an API error and a body that is not the expected JSON envelope is malformed.
*/
package vault
