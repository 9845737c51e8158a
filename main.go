// Command devskernel runs Parallel DEVS simulations described by a YAML
// experiment config against the bundled genctr example model library.
package main

import "github.com/vle-project/devskernel/cmd"

func main() {
	cmd.Execute()
}
