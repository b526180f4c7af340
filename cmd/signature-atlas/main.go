package main

import (
	atlas "github.com/Sakeeb91/czi-vcp-benchmarking"
)

func main() {
	atlas.Main()
}
