package main

import (
	"os"

	"github.com/MakiNampei/Desktop-Auto-Filer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
