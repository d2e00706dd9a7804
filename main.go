// The main package for the dailynews executable.
package main

import (
	"github.com/JakeFAU/dailynews-crawler/cmd"
)

func main() {
	cmd.Execute()
}
