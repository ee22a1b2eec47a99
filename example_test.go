package annotpdf_test

import (
	"context"
	"fmt"
	"strings"

	annotpdf "github.com/alnah/go-annotpdf"
)

// Example demonstrates exporting an annotated document to HTML.
// For PDF output, set HTMLOnly to false (requires Chrome).
func Example() {
	svc := annotpdf.New()
	defer svc.Close()

	result, err := svc.Export(context.Background(), annotpdf.Input{
		Source: "one two three four five six seven eight",
		Highlights: []annotpdf.Highlight{
			{ID: "h1", Start: 0, End: 15, Tag: "fact"},
			{ID: "h2", Start: 8, End: 25, Tag: "issue"},
		},
		HTMLOnly: true, // Skip PDF generation for this example
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	// The overlapping region is nested inside both highlight constructs.
	if strings.Contains(result.HTML, "hl-blend") {
		fmt.Println("overlap reconstructed")
	}
	// Output: overlap reconstructed
}

// Example_comments demonstrates threaded comments on a highlight. Comments
// become superscript anchors in the text and an endnotes section.
func Example_comments() {
	svc := annotpdf.New(annotpdf.WithPalette(annotpdf.Palette{
		Colors:  map[string]string{"question": "#cce5ff"},
		Default: "#ffe89c",
	}))
	defer svc.Close()

	result, err := svc.Export(context.Background(), annotpdf.Input{
		Source: "The estimate assumes linear growth.",
		Highlights: []annotpdf.Highlight{
			{ID: "q1", Start: 13, End: 20, Tag: "question"},
		},
		Comments: []annotpdf.Comment{
			{HighlightID: "q1", Author: "ada", Text: "Is that justified?"},
		},
		HTMLOnly: true,
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if strings.Contains(result.HTML, `class="comments"`) {
		fmt.Println("comments section generated")
	}
	// Output: comments section generated
}
