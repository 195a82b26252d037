// Package main is the roomsync entry point.
package main

import (
	"log"

	"github.com/Nurfog/bbbAPIGL/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
