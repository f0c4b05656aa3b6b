// Package provision declares the interfaces an environment provisioner must
// implement, and a registry for provisioner providers.
//
// A provisioner materializes the toolchain declared by an environment
// descriptor, so that a test command can be executed with that toolchain on
// PATH. The life-cycle mirrors one job: a Provisioner creates an
// EnvironmentBuilder per job, the builder is configured with trust settings
// and an optional access token, Provision() resolves the toolchain, and the
// resulting Environment executes exactly one command.
//
// We do not intend for a worker to use multiple provisioners at the same
// time, but implementors must support multiple concurrent builders, one per
// running job, with no shared mutable state between them.
package provision
