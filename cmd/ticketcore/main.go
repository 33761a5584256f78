package main

import (
	"log"

	"github.com/ticketcore/ticketcore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
