// Package main provides the gridbase CLI.
package main

import "github.com/mesh-intelligence/gridbase/internal/cli"

func main() {
	cli.Execute()
}
