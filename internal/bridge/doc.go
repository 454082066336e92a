// Package bridge deploys build artifacts from the local filesystem to a device
// reachable through a debug-bridge transport.
//
// Bridge decides, for every requested artifact, whether it already exists on
// the device, whether it may be overwritten, how it is pushed, and which
// permission changes follow the push. It also resolves remote file specs
// (literal paths or ls patterns) into concrete remote paths.
//
// The transport and the local file enumerator are collaborators consumed
// through the Transport and FileLister interfaces. All calls issued by a
// Bridge are strictly sequential: at most one transport operation is in
// flight at any time and nothing is retried.
package bridge
