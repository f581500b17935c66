package main

import (
	"log"

	"github.com/thiagokokada/gitliner/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitliner: %v", err)
	}
}
