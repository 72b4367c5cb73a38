// Package launcher holds the launcher release version.
package launcher

// Version is the launcher release version.
const Version = "0.3.0"
