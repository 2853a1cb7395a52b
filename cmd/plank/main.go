package main

import (
	"github.com/niels/plank/internal/cmd"
)

func main() {
	cmd.Execute()
}
