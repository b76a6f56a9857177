package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scorio/scorio/beam"
	"github.com/scorio/scorio/constants"
	"github.com/scorio/scorio/mei"
	"github.com/scorio/scorio/midi"
	"github.com/scorio/scorio/notation"
	"github.com/scorio/scorio/relpitch"
	"github.com/scorio/scorio/util"
)

var (
	convertBeam   string
	convertFormat string
	convertIndent string
	convertOut    string
)

func init() {
	convertCmd.Flags().StringVar(&convertBeam, "beam", "auto", "beam mode: off, on or auto")
	convertCmd.Flags().StringVar(&convertFormat, "format", "mei", "output format: mei or midi")
	convertCmd.Flags().StringVar(&convertIndent, "indent", constants.DefaultIndent, "indent string for XML output")
	convertCmd.Flags().StringVarP(&convertOut, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Converts notation source",
	Long:  `Converts notation source (a file, or stdin) to MEI or MIDI`,
	Run: func(cmd *cobra.Command, args []string) {
		var src string
		if len(args) == 1 {
			f := util.OpenFileOrPanic(args[0])
			defer f.Close()
			src = util.ReadAllOrPanic(f)
		} else {
			src = util.ReadAllOrPanic(os.Stdin)
		}

		out, err := Convert(src, convertBeam, convertFormat, convertIndent)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if convertOut == "" {
			os.Stdout.Write(out)
			return
		}
		if err := os.WriteFile(convertOut, out, 0644); err != nil {
			panic("Write failed for output file: " + err.Error())
		}
	},
}

// Convert runs the whole pipeline: decode, resolve relative pitches,
// auto-beam, encode. Exported for the serve handler and the e2e suite.
func Convert(src, beamMode, format, indent string) ([]byte, error) {
	doc, err := notation.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := relpitch.Resolve(doc); err != nil {
		return nil, err
	}
	mode, err := beam.ParseMode(beamMode)
	if err != nil {
		return nil, err
	}
	beam.Apply(doc, mode)

	switch format {
	case "", "mei":
		text, err := mei.Encode(doc, mei.Options{Indent: indent, XMLDecl: true})
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	case "midi":
		var buf bytes.Buffer
		if _, err := midi.Export(doc).WriteTo(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Errorf("unknown format %q", format)
	}
}
