package main

import "github.com/dhairyabh/Promtx-Studio/internal/cli"

func main() {
	cli.Main()
}
