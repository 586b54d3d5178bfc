// Package fetch provides the HTTP client used by the harvest pipeline.
//
// The client separates traffic into two classes with fixed per-request
// timeouts:
//   - API calls (repository metadata, tree listings): authenticated with
//     the GitHub token when one is configured
//   - raw downloads (file content): never authenticated
//
// Requests are never retried. Timeouts do not adapt to response times; a
// request that exceeds its budget counts as a fetch failure and the
// pipeline moves on. Response bodies are capped to bound memory use.
//
// All outbound traffic can optionally be routed through a SOCKS5 proxy.
package fetch
