package main

import (
	"crypto/md5"
	"flag"
	"fmt"
	"os"
)

// hashgen prints the MD5 hex digest of a gate bypass token, for pasting
// into gate.bypass_md5 in the gateway config.
func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <token>\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	fmt.Printf("%x\n", md5.Sum([]byte(flag.Arg(0))))
}
