// Command tankersim simulates a fleet of water trucks refilling consumer
// tanks.
package main

import "github.com/sarchlab/tankersim/tankersim/cmd"

func main() {
	cmd.Execute()
}
