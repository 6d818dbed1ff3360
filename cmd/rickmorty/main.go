// Command rickmorty syncs characters from the Rick and Morty API into a
// destination.
//
//	rickmorty check    --config source.yaml
//	rickmorty discover --config source.yaml
//	rickmorty read     --config source.yaml --limit 5
//	rickmorty run      --source source.yaml --destination dest.yaml
package main

import (
	"fmt"
	"os"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
