package main

import (
	"log"

	"github.com/dmitrijs2005/tipkeeper/internal/custodyctl"
)

func main() {
	if err := custodyctl.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
