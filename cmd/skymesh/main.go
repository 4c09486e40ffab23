// The skymesh command boots a simulated drone network from a topology
// document and keeps it running until interrupted.
package main

func main() {
	Execute()
}
