// Command a5-airport serves the A5 cell index to DuckDB over Arrow Flight.
package main

import "os"

func main() {
	os.Exit(Execute())
}
