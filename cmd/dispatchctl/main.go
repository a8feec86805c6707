// Package main is the operator CLI for the insdr-dispatch service.
package main

import "github.com/popeskul/insdr-dispatch/internal/cmd"

func main() {
	cmd.Execute()
}
