package main

import (
	"os"

	"github.com/adaptilearn/quizsynth/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
