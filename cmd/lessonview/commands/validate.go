package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/livetemplate/lessonview"
)

var (
	okColor      = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	hintColor    = color.New(color.FgYellow)
	relatedColor = color.New(color.FgCyan)
)

// ValidateCommand implements the validate command.
func ValidateCommand(args []string) error {
	return validate(color.Output, args)
}

func validate(w io.Writer, args []string) error {
	path := "."
	var configPath string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" || arg == "-c" {
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		} else if !strings.HasPrefix(arg, "-") {
			path = arg
		}
	}

	t, err := resolveTarget(path, configPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "🔍 Validating lesson document: %s\n\n", t.docPath)

	doc, err := lessonview.Load(t.docPath)
	if err != nil {
		var docErr *lessonview.DocumentError
		if errors.As(err, &docErr) {
			printProblem(w, docErr)
		} else {
			errorColor.Fprintf(w, "✗ %v\n", err)
		}
		return fmt.Errorf("validation failed")
	}

	problems := lessonview.Validate(doc, t.docPath)
	for _, p := range problems {
		printProblem(w, p)
	}

	exercises, tables := 0, 0
	for _, lesson := range doc.Lessons {
		exercises += len(lesson.Exercises)
		for _, ex := range lesson.Exercises {
			if ex.TableLayout != nil {
				tables++
			}
		}
	}

	fmt.Fprint(w, "\n"+strings.Repeat("─", 60)+"\n")
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Lessons:   %d\n", len(doc.Lessons))
	fmt.Fprintf(w, "  Exercises: %d\n", exercises)
	fmt.Fprintf(w, "  Tables:    %d\n", tables)
	fmt.Fprintf(w, "  Problems:  %d\n", len(problems))
	fmt.Fprintln(w)

	if len(problems) > 0 {
		errorColor.Fprintf(w, "✗ Validation failed with %d problem(s)\n", len(problems))
		return fmt.Errorf("validation failed")
	}

	okColor.Fprintln(w, "✓ All checks passed!")
	return nil
}

func printProblem(w io.Writer, p *lessonview.DocumentError) {
	errorColor.Fprintf(w, "✗ %s: ", p.Location())
	fmt.Fprintln(w, p.Message)
	if p.Err != nil {
		fmt.Fprintf(w, "  %v\n", p.Err)
	}
	if p.Hint != "" {
		hintColor.Fprintf(w, "  💡 %s\n", p.Hint)
	}
	if p.Related != "" {
		relatedColor.Fprintf(w, "  🔗 %s\n", p.Related)
	}
}
