// Package main is the entry point for the qcgen CLI.
package main

import "qcgen.dev/pkg/qcgen/cmd"

func main() {
	cmd.Execute()
}
