package main

import "github.com/lukman83/vinted-backoffice/cmd"

func main() {
	cmd.Execute()
}
