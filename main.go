package main

import (
	"context"
	"os"
)

var App *BoxOffice

func main() {
	App = initApp()
	err := App.cliCmd.Run(context.Background(), os.Args)
	if err != nil {
		App.logger.Error("fatal error", "error", err.Error())
		os.Exit(1)
	}
}
