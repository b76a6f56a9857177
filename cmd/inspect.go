package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/scorio/scorio/model"
	"github.com/scorio/scorio/notation"
	"github.com/scorio/scorio/relpitch"
	"github.com/scorio/scorio/util"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Inspects notation source",
	Long:  `Inspects notation source and prints a per-measure summary`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f := util.OpenFileOrPanic(args[0])
		defer f.Close()

		doc, err := notation.Parse(util.ReadAllOrPanic(f))
		if err != nil {
			panic("Couldn't parse source: " + err.Error())
		}
		if err := relpitch.Resolve(doc); err != nil {
			panic("Couldn't resolve pitches: " + err.Error())
		}
		inspect(doc)
	},
}

func inspect(doc *model.Document) {
	if doc.Meta.Title != "" {
		fmt.Printf("title: %s\n", doc.Meta.Title)
	}
	if doc.Meta.Composer != "" {
		fmt.Printf("composer: %s\n", doc.Meta.Composer)
	}
	for mi, m := range doc.Measures {
		fmt.Printf("measure %d", mi+1)
		if m.Time != nil {
			fmt.Printf(" [%d/%d]", m.Time.Num, m.Time.Den)
		}
		fmt.Println()
		for pi, part := range m.Parts {
			for vi, voice := range part.Voices {
				counts := countEvents(voice.Events)
				kinds := util.GetKeys(counts)
				sort.Strings(kinds)
				fmt.Printf("  part %d voice %d:", pi+1, vi+1)
				for _, k := range kinds {
					fmt.Printf(" %s=%d", k, counts[k])
				}
				fmt.Println()
			}
		}
	}
}

func countEvents(events []model.Event) map[string]int {
	counts := map[string]int{}
	for _, ev := range events {
		counts[eventKind(ev)]++
		if t, ok := ev.(*model.Tuplet); ok {
			for k, n := range countEvents(t.Events) {
				counts[k] += n
			}
		}
	}
	return counts
}

func eventKind(ev model.Event) string {
	switch ev.(type) {
	case *model.Note:
		return "note"
	case *model.Rest:
		return "rest"
	case *model.Tuplet:
		return "tuplet"
	case *model.Tremolo:
		return "tremolo"
	case *model.ContextChange:
		return "context"
	case *model.Barline:
		return "barline"
	case *model.Harmony:
		return "harmony"
	case *model.Annotation:
		return "annotation"
	case *model.PitchReset:
		return "reset"
	default:
		return "other"
	}
}
