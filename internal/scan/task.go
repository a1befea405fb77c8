package scan

import "github.com/kailas-cloud/ieql/internal/domain/document"

// Task is one document to scan. Done, when set, is called after every
// response for the document has been pushed to the output queue; sources
// use it to acknowledge delivery.
type Task struct {
	Document document.Document
	Done     func()
}
