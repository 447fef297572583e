package main

import "github.com/RRZE-Webteam/rrze-updater/cmd"

func main() {
	cmd.Execute()
}
