package handlers

const (
	ServiceName    = "Hybridation API"
	ServiceVersion = "2.0.0"

	// Multipart and form field names
	fieldFile      = "file"
	fieldStyle     = "style"
	fieldImageBlob = "image_blob"

	requestIDKey = "request_id"
)
