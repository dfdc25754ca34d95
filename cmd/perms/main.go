package main

import (
	"os"

	"go.minekube.com/perms/pkg/cmd/perms"
)

func main() {
	_ = perms.App().Run(os.Args)
}
