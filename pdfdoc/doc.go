// Package pdfdoc extracts text, links, images and tables from PDF files.
//
// Two parsers read every document. github.com/ledongthuc/pdf supplies
// positioned glyphs with font names and sizes, the page tree and annotation
// dictionaries; it serves as the primary backend for text, links and
// tables. github.com/pdfcpu/pdfcpu validates the file, decodes content
// streams with every standard filter and extracts embedded images; it is
// the primary backend for images and the secondary for everything else.
// A minimal content-stream tokenizer shared by both paths recovers text
// operators, painted rules and inline-image boundaries.
//
// Page numbers in records are 0-based; internal link targets use 1-based
// "#page=N" fragments as PDF viewers do.
package pdfdoc
