// railbake converts the rail-node entities of an entity file into a
// rails.yaml list of static rail definitions.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/raftrail/railsim/internal/data"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: railbake <entities.yaml> <rails.yaml> [speed]")
		os.Exit(1)
	}

	speed := 1.0
	if len(os.Args) > 3 {
		v, err := strconv.ParseFloat(os.Args[3], 64)
		if err != nil || v <= 0 {
			fmt.Fprintf(os.Stderr, "invalid speed %q\n", os.Args[3])
			os.Exit(1)
		}
		speed = v
	}

	l, err := data.LoadEntityList(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rails, skipped := data.BakeRails(l, speed)
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d rail nodes without a transform\n", skipped)
	}
	if err := data.WriteRailDefs(os.Args[2], rails); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d rails to %s\n", len(rails), os.Args[2])
}
