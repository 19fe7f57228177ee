package main

import (
	"os"

	"sakibee/service"
)

func main() {
	os.Exit(service.HandleCommand(os.Args[1:]))
}
