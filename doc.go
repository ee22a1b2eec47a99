// Package annotpdf exports annotated documents (highlighted spans, threaded
// comments, tag colours) to typeset PDF, preserving every annotation's
// boundaries and nesting across an annotation-unaware document converter.
//
// # Quick Start
//
// Create a service, export a document, and close when done:
//
//	svc := annotpdf.New()
//	defer svc.Close()
//
//	result, err := svc.Export(ctx, annotpdf.Input{
//	    Source: "one two three four five six seven eight",
//	    Highlights: []annotpdf.Highlight{
//	        {ID: "h1", Start: 0, End: 15, Tag: "fact"},
//	        {ID: "h2", Start: 8, End: 25, Tag: "issue"},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.pdf", result.PDF, 0644)
//
// The result carries the PDF bytes (result.PDF), the reconstructed HTML
// (result.HTML) for debugging, and any reconstruction warnings. Use
// Input.HTMLOnly to skip PDF generation.
//
// # Export Pipeline
//
// Each export is a pure, synchronous transform:
//
//  1. Marker injection: highlight and comment boundaries become inert
//     sentinel tokens spliced into the source at codepoint offsets.
//  2. External conversion: the marker-laden text passes through the
//     annotation-unaware converter (goldmark by default; substitute the
//     real external tool with WithConverter).
//  3. Marker lexing: sentinels are recovered from the converter output,
//     even when re-escaped or split across style boundaries.
//  4. Reconstruction: the output tree is rewritten into balanced highlight
//     and comment constructs: nested for two overlapping highlights, an
//     underline overlap construct for three or more, split at structural
//     boundaries a highlight cannot wrap across.
//  5. Compilation: the final document renders to PDF via headless Chrome.
//
// The output never contains a marker token; a leaked marker is a fatal
// pipeline bug, not a warning.
//
// # Highlight offsets
//
// Highlight.Start and Highlight.End are codepoint offsets into
// Input.Source, not bytes and not grapheme clusters. CJK, RTL scripts, and
// emoji therefore never shift boundaries.
//
// # Concurrency
//
// Exports share no mutable state; a Service is safe for sequential reuse,
// and a ServicePool runs independent exports in parallel, one browser
// instance each:
//
//	pool := annotpdf.NewServicePool(4)
//	defer pool.Close()
//
//	svc := pool.Acquire()
//	defer pool.Release(svc)
//	result, err := svc.Export(ctx, input)
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library downloads a
// managed Chromium on first run. For containers and CI set ROD_NO_SANDBOX=1;
// use ROD_BROWSER_BIN to point at a custom binary.
package annotpdf
