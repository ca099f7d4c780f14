package main

import (
	"fmt"
	"os"

	"github.com/dvel-foundation/go-dvel/cmd/dvel/launcher"
)

func main() {
	if err := launcher.Launch(os.Args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
