package main

import "github.com/frahmantamala/it-helpdesk/cmd"

func main() {
	cmd.Execute()
}
