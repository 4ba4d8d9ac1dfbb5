package main

import (
	"github.com/stewarddata/steward-internal/internal/cli"
)

func main() {
	cli.Execute()
}
