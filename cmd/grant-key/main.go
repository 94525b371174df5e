// Package main provides a one-shot utility for transfer grant key generation.
//
// It emits the asymmetric keypair used to sign journal export grants.
package main

import (
	"os"

	"github.com/louisbranch/galley/internal/platform/config"
	"github.com/louisbranch/galley/internal/tools/grantkey"
)

func main() {
	if err := grantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate transfer grant key: %v", err)
	}
}
