package main

import (
	"github.com/keystone-scm/keystone/cmd/keystone/cmd"
)

func main() {
	cmd.Execute()
}
