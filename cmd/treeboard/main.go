package main

import (
	"fmt"
	"os"

	"github.com/ideamans/go-treeboard/cmd/treeboard/cmds"
)

func main() {
	if err := cmds.RootCmd.Execute(); err != nil {
		fmt.Println("Error:", err.Error())
		os.Exit(1)
	}
}
