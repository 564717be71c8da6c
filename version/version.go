package version

// Name for this
const Name string = "squareframe"

// Version for this
var Version = "0.1.0"

// Revision for this, set by goreleaser
var Revision = "HEAD"
