// Command mockrun runs a JavaScript file or an HTML page's scripts against
// the mock window and prints a JSON report of everything the code tried to do
// to its environment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chrisuehlinger/mockwindow/harness"
	"go.uber.org/zap"
)

// report is the JSON shape printed after a run
type report struct {
	Script         string            `json:"script,omitempty"`
	Page           string            `json:"page,omitempty"`
	Location       map[string]string `json:"location"`
	LocalStorage   [][2]string       `json:"localStorage"`
	SessionStorage [][2]string       `json:"sessionStorage"`
	Overrides      []string          `json:"overrides"`
	Dialogs        dialogCounts      `json:"dialogs"`
	Errors         []string          `json:"errors,omitempty"`
}

type dialogCounts struct {
	Alert   int `json:"alert"`
	Confirm int `json:"confirm"`
	Prompt  int `json:"prompt"`
}

func main() {
	jsFile := flag.String("js", "", "JavaScript file to run")
	htmlFile := flag.String("html", "", "HTML page whose scripts to run")
	initialURL := flag.String("url", "https://example.com/", "Initial location for the mock window")
	verbose := flag.Bool("v", false, "Enable development logging")
	flag.Parse()

	if (*jsFile == "") == (*htmlFile == "") {
		fmt.Fprintf(os.Stderr, "Usage: %s -js file.js | -html page.html [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -js app.js -url https://example.com/app\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -html page.html -v\n", os.Args[0])
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
			os.Exit(1)
		}
	}

	opts := []harness.Option{
		harness.WithLogger(logger),
		harness.WithLocationURL(*initialURL),
	}
	if *htmlFile != "" {
		// Script src attributes resolve against the page's directory
		dir := filepath.Dir(*htmlFile)
		opts = append(opts, harness.WithScriptLoader(func(src string) (string, error) {
			if strings.Contains(src, "://") {
				return "", fmt.Errorf("remote script %s is not supported", src)
			}
			body, err := os.ReadFile(filepath.Join(dir, src))
			if err != nil {
				return "", err
			}
			return string(body), nil
		}))
	}

	h, err := harness.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building harness: %v\n", err)
		os.Exit(1)
	}

	// Counting bindings in place of the silent defaults
	var counts dialogCounts
	dialogs := h.Window().Dialogs()
	dialogs.OnAlert(func(message string) {
		counts.Alert++
	})
	dialogs.OnConfirm(func(message string) bool {
		counts.Confirm++
		return false
	})
	dialogs.OnPrompt(func(message, defaultValue string) (string, bool) {
		counts.Prompt++
		return "", false
	})

	var rep report
	var runErrors []string

	if *jsFile != "" {
		rep.Script = *jsFile
		body, err := os.ReadFile(*jsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *jsFile, err)
			os.Exit(1)
		}
		if _, err := h.RunScript(filepath.Base(*jsFile), string(body)); err != nil {
			runErrors = append(runErrors, err.Error())
		}
	} else {
		rep.Page = *htmlFile
		body, err := os.ReadFile(*htmlFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *htmlFile, err)
			os.Exit(1)
		}
		if err := h.LoadHTML(string(body)); err != nil {
			runErrors = append(runErrors, err.Error())
		}
	}

	w := h.Window()
	rep.Location = w.Location().Values()
	rep.LocalStorage = w.LocalStorage().Snapshot()
	rep.SessionStorage = w.SessionStorage().Snapshot()
	rep.Overrides = w.OverriddenKeys()
	rep.Dialogs = counts
	rep.Errors = runErrors

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if len(runErrors) > 0 {
		os.Exit(1)
	}
}
