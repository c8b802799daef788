// Command istd runs the IST (Incremental State Transfer) daemon, either
// as a joiner receiving a catch-up stream or a donor serving one.
package main

import (
	"os"

	"github.com/dutow/galera/cmd/istd/cmd"
	"github.com/dutow/galera/internal/log"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}
