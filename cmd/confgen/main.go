// confgen generates typed record definitions from configuration files.
package main

import (
	"os"

	"github.com/confgen/confgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
