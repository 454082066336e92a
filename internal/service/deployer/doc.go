// Package deployer wires settings, the sdb transport, the local file lister
// and the bridge together for each CLI command.
//
// Push holds a deployment marker for its whole run so that two deployments
// never interleave their sdb calls against the same device.
package deployer
