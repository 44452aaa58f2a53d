// Command tableschema writes the JSON schema of every designer table so
// editors can validate table overrides.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/internal/catalog"
)

func main() {
	if err := execute(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logrus.WithError(err).Fatal("tableschema failed")
	}
}

// execute writes <table>.schema.json files under -out, or a single table to
// stdout when -out is "-".
func execute(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("tableschema", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("out", "schemas", `output directory, or "-" for stdout`)
	only := fs.String("table", "", "emit a single table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	names := catalog.TableNames()
	if *only != "" {
		names = []string{*only}
	}
	if *out == "-" && len(names) != 1 {
		return fmt.Errorf("tableschema: stdout output needs -table")
	}

	for _, name := range names {
		schema, err := catalog.Schema(name)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("tableschema: encode %s: %w", name, err)
		}
		data = append(data, '\n')
		if *out == "-" {
			_, err = stdout.Write(data)
			return err
		}
		if err := os.MkdirAll(*out, 0o755); err != nil {
			return fmt.Errorf("tableschema: create output directory: %w", err)
		}
		path := filepath.Join(*out, name+".schema.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("tableschema: write %s: %w", path, err)
		}
		logrus.WithFields(logrus.Fields{"table": name, "path": path}).Info("schema written")
	}
	return nil
}
