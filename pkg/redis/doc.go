// Package redis provides connection management for the optional Redis
// deployment used as a shared tenant-record cache. Connect retries with a
// bounded deadline so a slow-starting Redis does not wedge service startup,
// and Healthcheck plugs into the readiness probe.
package redis
