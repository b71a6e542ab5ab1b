package docstore

import (
	"mime"
	"path"
	"strings"
)

var mimeByExtension = map[string]string{
	".csv":  "text/csv",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".json": "application/json",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".zip":  "application/zip",
}

// mimeTypeOf guesses the mime type of a file name. Parameters such as
// charset are dropped so that the result compares equal to a Query.MimeType.
func mimeTypeOf(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if t, ok := mimeByExtension[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return strings.TrimSpace(t)
	}
	return "application/octet-stream"
}
