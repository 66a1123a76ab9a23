package main

import (
	"github.com/CEA-LIST/sgntx/cmd/vcfbin/cmd"
	"github.com/CEA-LIST/sgntx/pkg/di"
)

func main() {
	container := di.NewContainer()

	cmd.SetContainer(container)

	cmd.Execute()
}
