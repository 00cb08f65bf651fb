// Package main is the entry point for the cogstats command-line utility.
package main

import "github.com/cogniac/cogstats/internal/cli"

func main() {
	cli.Execute()
}
