package interfaces

// PDFService defines the interface for PDF generation operations
type PDFService interface {
	// ConvertMarkdownToPDF converts markdown content to PDF format
	ConvertMarkdownToPDF(markdown string, title string) ([]byte, error)
}
