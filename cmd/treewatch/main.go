// Command treewatch is a small, real CLI front end for the treewatch
// library: it watches a directory tree and prints change events as they're
// reconciled.
package main

import "os"

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
