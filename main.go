// Command elections scrapes French election results.
package main

import (
	"github.com/JakeFAU/election-results-scraper/cmd"
)

func main() {
	cmd.Execute()
}
