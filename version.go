package switchboard

// Version is the release of the switchboard module, overridden at build time
// with -ldflags "-X github.com/aretw0/switchboard.Version=...".
var Version = "0.3.0"
