// Package providers holds the shared token-exchange plumbing and, in its
// subpackages, one adapter per external platform. Adapters build requests
// and normalize responses; the gateway core owns the network round trip.
package providers
