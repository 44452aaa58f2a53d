// Command depscheck fails when a simulation library package imports the
// orchestration layer above it.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const modulePath = "hold-the-line/server"

// Layers that may import everything below them. Nothing below may import
// them back.
var upper = []string{
	modulePath + "/internal/sim",
	modulePath + "/internal/app",
	modulePath + "/cmd",
}

var scanned = []string{"./internal/...", "./logging/...", "./stats/..."}

type packageInfo struct {
	ImportPath string
	Imports    []string
}

func main() {
	log := logrus.New()
	violations, err := listAndCheck()
	if err != nil {
		log.WithError(err).Fatal("depscheck failed")
	}
	for _, v := range violations {
		log.WithField("import", v).Error("forbidden upward import")
	}
	if len(violations) > 0 {
		os.Exit(1)
	}
}

func listAndCheck() ([]string, error) {
	cmd := exec.Command("go", append([]string{"list", "-json"}, scanned...)...)
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("go list: %w", err)
	}
	violations, checkErr := check(stdout)
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("go list: %w", err)
	}
	return violations, checkErr
}

// check decodes a `go list -json` stream and reports library packages that
// import an upper layer.
func check(r io.Reader) ([]string, error) {
	decoder := json.NewDecoder(r)
	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode go list output: %w", err)
		}
		if isUpper(pkg.ImportPath) {
			continue
		}
		for _, imp := range pkg.Imports {
			if isUpper(imp) {
				violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
			}
		}
	}
	sort.Strings(violations)
	return violations, nil
}

func isUpper(path string) bool {
	for _, layer := range upper {
		if rest, ok := strings.CutPrefix(path, layer); ok && (rest == "" || rest[0] == '/') {
			return true
		}
	}
	return false
}
