package main

import "github.com/frahmantamala/grievance-portal/cmd"

func main() {
	cmd.Execute()
}
