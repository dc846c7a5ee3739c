package main

import (
	"github.com/findy-network/findy-exchange/cmd"
)

func main() {
	cmd.Execute()
}
