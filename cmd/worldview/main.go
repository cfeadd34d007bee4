package main

import (
	"log"
	"os"

	"github.com/i474232898/worldview/cmd/worldview/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}
}
