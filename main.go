package main

import (
	"github.com/custodia-labs/sheetsync/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
