// Package core holds the gateway's domain model and the service that
// drives its two boundary flows: verified webhook ingestion from a source
// platform and authorization-code exchange against registered platform
// adapters. All collaborators are injected through functional options; the
// other packages in this module provide the default implementations.
package core
