// Command fluxchart loads, validates and runs chart definitions.
package main

func main() {
	Execute()
}
