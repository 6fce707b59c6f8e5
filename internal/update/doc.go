// Package update is the firmware update listener.
//
// Update orchestrators push firmware images over HTTP; the server stages
// each image to disk under a generated id and reports device status so an
// orchestrator can avoid updating a device mid-reset. Actually flashing a
// staged image is the platform tooling's job, not this daemon's.
package update
