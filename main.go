package main

import (
	"github.com/ColonelBlimp/dtmfdecoder/cmd"
	"github.com/ColonelBlimp/dtmfdecoder/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
