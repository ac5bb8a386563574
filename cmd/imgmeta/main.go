// cmd/imgmeta/main.go
package main

import (
	"github.com/bstardust/imgmeta/pkg/cli"
)

func main() {
	// Execute CLI
	cli.Execute()
}
