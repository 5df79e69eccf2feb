// Command unpakr walks a downloads tree, extracts archive groups through
// external unpack tools, marks each group done for idempotent re-runs, and
// optionally syncs the tree to a remote before cleaning the extracted output.
package main
