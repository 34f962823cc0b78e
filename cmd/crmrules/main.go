package main

import (
	"os"

	"github.com/kylasweb/inline-crm-rules/cmd/crmrules/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
