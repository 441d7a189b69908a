package interfaces

// PDFRenderer turns a markdown document into a PDF
type PDFRenderer interface {
	// RenderMarkdown renders markdown to PDF bytes; title becomes the document title metadata
	RenderMarkdown(markdown, title string) ([]byte, error)
}
