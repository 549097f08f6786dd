// flagsweep-vet reports feature flag evaluation calls with the go/analysis
// command line driver:
//
//	flagsweep-vet -preset=launchdarkly -key=new-checkout ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/gnolang/flagsweep/internal/finder"
)

func main() { singlechecker.Main(finder.NewAnalyzer()) }
