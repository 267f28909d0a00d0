package main

import (
	"os"

	"pt2rknn/internal/cli"
)

func main() { os.Exit(cli.Main()) }
