package sqlhost

import "log/slog"

// Option configures a Document.
type Option func(*Document)

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(d *Document) {
		d.title = title
	}
}

// WithDocumentType sets the document type, such as "Project" or "Family".
func WithDocumentType(docType string) Option {
	return func(d *Document) {
		d.docType = docType
	}
}

// WithLogHandler sets a custom slog handler for the document.
func WithLogHandler(handler slog.Handler) Option {
	return func(d *Document) {
		if handler != nil {
			d.logger = slog.New(handler.WithGroup("sqlhost"))
		}
	}
}
