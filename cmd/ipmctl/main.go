// Command ipmctl is the terminal client of the IP Manager back office. It
// signs in against the same database as the API and keeps its session in
// a local file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
