package main

import (
	"fmt"
	"os"

	"github.com/campuslend/lendhub/cmd/cli/root"

	_ "github.com/campuslend/lendhub/cmd/cli/items"
	_ "github.com/campuslend/lendhub/cmd/cli/logs"
	_ "github.com/campuslend/lendhub/cmd/cli/requests"
	_ "github.com/campuslend/lendhub/cmd/cli/session"
)

func main() {
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
