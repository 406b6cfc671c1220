/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2020 WireGuard LLC. All Rights Reserved.
 */

// qrtx encodes an arbitrary file into a sequence of QR code images (or
// terminal frames) and reconstructs it again from a scan of that
// sequence, adapted from the single-binary wireguard-go command into a
// two-subcommand CLI.
package main

import (
	"fmt"
	"os"
)

// Version is the qrtx release version printed by --version.
const Version = "0.1.0"

const (
	ExitSuccess = 0
	ExitFailure = 1
)

func printUsage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s encode [flags] <input-file>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s decode [flags] <input-path>\n", os.Args[0])
}

func main() {
	if len(os.Args) >= 2 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("qrtx v%s\n", Version)
		return
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(ExitFailure)
	}

	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	default:
		printUsage()
		os.Exit(ExitFailure)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "qrtx: %v\n", err)
		os.Exit(ExitFailure)
	}
}
