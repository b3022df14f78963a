package main

import "github.com/snr16/AI-mashup-generator/cmd"

func main() {
	cmd.Execute()
}
