// Package commerce provides the collaborators the workflows drive:
// product discovery, storefront, ads, fulfillment and customer messages.
//
// Implementations:
//   - memory: a seeded in-process catalog implementing every collaborator
//   - rest: an HTTP client for the commerce backend API, guarded by a
//     circuit breaker and a client-side rate limiter
package commerce
