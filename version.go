package dialogue

// Version is the library release tag, reported by the CLI.
const Version = "0.4.0"
