// Package logs reads back the audioscribe log file for the `audioscribe logs`
// command. It returns the last N lines with bounded memory and can follow the
// file as later runs append to it.
package logs
