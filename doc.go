/*
Package glueops provides small, independent clients and helpers used by
GlueOps operational tooling. None of them share state; each wraps a single
external API or standard facility.

The SecretStore interface provides an abstraction to read and write key-value
secrets without needing to know which secrets storage service backs them. The
vault package implements it on top of the Vault HTTP API, authenticating with
the workload's Kubernetes service account, and the secret package implements it
on top of AWS Secrets Manager.

The DocumentClient interface wraps the Outline document API, including
enumerating the children of a document one page at a time.

The TagClient interface provides a convenience wrapper around the AWS Resource
Groups Tagging API. The tag package implements it and provides a helper to look
up resource ARNs by their tags.

The certificate, checksum, logging, kube and ratelimit packages are standalone
helpers: certificate serial formatting, string checksums, named JSON loggers,
Kubernetes client bootstrap and HTTP 429 throttling.

Errors returned by the clients can be inspected with IsAuthenticationError,
IsRedirectError, IsMalformedResponseError, IsAPIError and IsNetworkError.
*/
package glueops
