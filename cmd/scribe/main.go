package main

import (
	"whisper-scribe/cmd/scribe/cmd"
)

func main() {
	cmd.Execute()
}
