// Package main provides the entry point for the hdcompare manifest comparison CLI.
package main

import (
	"os"
)

func main() {
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}
