package main

import "github.com/jamwojt/csv-sumup/cmd"

func main() {
	cmd.Execute()
}
