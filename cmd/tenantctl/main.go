package main

import (
	"os"

	"tenantgate/cmd/tenantctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
