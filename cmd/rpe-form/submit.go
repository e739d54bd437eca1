package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mbolis/rpe-survey/form"
	"github.com/mbolis/rpe-survey/log"
	"github.com/mbolis/rpe-survey/model"
	"github.com/mbolis/rpe-survey/schema"
	"github.com/mbolis/rpe-survey/submission"
)

var errQuit = errors.New("quit without submitting")

// clearAnswer empties a field that already holds a value.
const clearAnswer = "-"

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Fill in and send today's RPE survey",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := submission.NewClient(strings.TrimRight(serverURL, "/") + "/api/submissions")
		f := form.New(schema.RPE(emailDomain), client)
		log.Debugf("form %s posting to %s", f.ID(), client.Endpoint())
		err := runForm(cmd.Context(), f, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
		if errors.Is(err, errQuit) {
			return nil
		}
		return err
	},
}

// runForm renders f on a line-oriented terminal until the response is
// recorded or the athlete quits.
func runForm(ctx context.Context, f *form.Form, in *bufio.Reader, out io.Writer) error {
	f.OnTransition(func(t form.Transition) {
		if t.To == form.Submitting {
			fmt.Fprintln(out, "Submitting...")
		}
	})

	fmt.Fprintln(out, "Rate of Perceived Exertion Form")
	fmt.Fprintln(out, "Press Enter to keep the value shown in {braces}, "+clearAnswer+" to clear it.")
	fields := f.Schema().Fields
	for {
		if err := promptFields(f, fields, in, out); err != nil {
			return err
		}

		outcome, err := f.Submit(ctx)
		if err != nil {
			return err
		}

		v := f.View()
		switch o := outcome.(type) {
		case submission.Success:
			fmt.Fprintln(out, v.Message)
			return nil
		case submission.ValidationFailed:
			fmt.Fprintln(out, v.Message)
			fields = invalidFields(f.Schema(), o.Result)
			for _, fd := range fields {
				fmt.Fprintf(out, "  %s\n", o.Result[fd.Name])
			}
		default:
			fmt.Fprintln(out, v.Message)
			choice, err := ask(in, out, "Press Enter to retry, e to edit, q to quit: ")
			if err != nil {
				return err
			}
			switch strings.ToLower(choice) {
			case "q":
				return errQuit
			case "e":
				fields = f.Schema().Fields
			default:
				fields = nil
			}
		}
	}
}

// promptFields asks for each field. An empty answer keeps the current value
// and clearAnswer empties it.
func promptFields(f *form.Form, fields []model.FieldDefinition, in *bufio.Reader, out io.Writer) error {
	for _, fd := range fields {
		current := f.View().Record[fd.Name]
		answer, err := ask(in, out, fieldPrompt(fd, current, f.Schema().EmailDomain))
		if err != nil {
			return err
		}
		switch answer {
		case "":
			continue
		case clearAnswer:
			answer = ""
		}
		if err := f.Set(fd.Name, answer); err != nil {
			return err
		}
	}
	return nil
}

func fieldPrompt(fd model.FieldDefinition, current, domain string) string {
	var b strings.Builder
	b.WriteString(fd.Label)
	switch fd.Kind {
	case model.KindEmailLocalPart:
		b.WriteString(" (before @" + domain + ")")
	case model.KindEnum:
		b.WriteString(" [" + strings.Join(fd.Constraint.Values, "/") + "]")
	case model.KindNumericRange:
		fmt.Fprintf(&b, " (%d-%d)", fd.Constraint.Min, fd.Constraint.Max)
	case model.KindFixedLengthDigits:
		fmt.Fprintf(&b, " (%d digits)", fd.Constraint.Length)
	}
	if current != "" {
		b.WriteString(" {" + current + "}")
	}
	b.WriteString(": ")
	return b.String()
}

func invalidFields(s model.Schema, result model.ValidationResult) []model.FieldDefinition {
	var fields []model.FieldDefinition
	for _, fd := range s.Fields {
		if _, bad := result[fd.Name]; bad {
			fields = append(fields, fd)
		}
	}
	return fields
}

func ask(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errQuit
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
