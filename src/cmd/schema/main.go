// Command schema prints the DDL of every model for Atlas:
//
//	atlas migrate diff --env gorm
package main

import (
	"fmt"
	"io"
	"os"

	"maidops/src/db"

	"ariga.io/atlas-provider-gorm/gormschema"
)

func main() {
	stmts, err := gormschema.New("postgres").Load(db.AllModels()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
