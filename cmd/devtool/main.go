package main

import (
	"os"

	"whatsapp-notifier/cmd/devtool/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
