// Package main starts the application.
package main

import "github.com/imap-mag/magvault/pkg/cmd"

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
