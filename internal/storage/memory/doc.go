// Package memory provides a process-local token store.
//
// Nothing survives the process; it backs tests and sessions that should
// not touch disk.
package memory
