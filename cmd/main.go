package main

import (
	"os"
	"path/filepath"

	"github.com/argoproj-labs/resourcelens/cmd/resourcelens/commands"
	"github.com/argoproj-labs/resourcelens/util/errors"
)

const (
	binaryNameEnv = "RESOURCELENS_BINARY_NAME"
)

func main() {
	binaryName := filepath.Base(os.Args[0])
	if val := os.Getenv(binaryNameEnv); val != "" {
		binaryName = val
	}

	command := commands.NewCommand()
	switch binaryName {
	// installed as a kubectl plugin, e.g. `kubectl lens compare deploy web`
	case "kubectl-lens", "kubectl_lens":
		command.Use = "kubectl lens"
	}

	errors.CheckError(command.Execute())
}
