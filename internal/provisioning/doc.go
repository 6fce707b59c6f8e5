// Package provisioning manages the outlet's network credentials and tracks
// connectivity.
//
// Credentials live in a JSON file whose presence marks the device as
// provisioned; erasing the file returns the device to its out-of-box state.
// The Monitor polls credentials and a TCP reachability probe, distilling the
// result into one of three statuses (unconfigured, connecting, connected)
// and emitting only on change.
package provisioning
