// Benor runs and controls Ben-Or consensus nodes.
package main

import "github.com/relab/benor/internal/cli"

func main() {
	cli.Execute()
}
