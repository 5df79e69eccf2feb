// Package preflight validates the environment before a run mutates anything:
// directory permissions and the external binaries the enabled steps shell
// out to.
package preflight
