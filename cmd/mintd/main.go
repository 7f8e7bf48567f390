package main

import (
	"log"

	"github.com/0xhanvalen/skaterbirds-nft/services/mintd"
)

func main() {
	if err := mintd.Main(); err != nil {
		log.Fatalf("mintd: %v", err)
	}
}
