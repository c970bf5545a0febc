package uploads

// Resume uploads only: documents the agent can analyse plus images the
// vision model accepts.
var allowedMimeTypes = map[string]string{
	"application/pdf": ".pdf",

	"text/plain":    ".txt",
	"text/markdown": ".md",
	"text/rtf":      ".rtf",

	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func ExtForMime(m string) (string, bool) {
	ext, ok := allowedMimeTypes[m]
	return ext, ok
}
