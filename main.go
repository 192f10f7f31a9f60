package main

import "github.com/jsphweid/pitchcoach/cmd"

func main() {
	cmd.Execute()
}
