/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package main

import "github.com/demokit/crmstack/pkg/cli"

func main() {
	cli.Execute()
}
