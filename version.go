package parley

// Version is the release of the parley module.
const Version = "0.1.0"
