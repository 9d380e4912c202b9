package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
)

// formFile opens the multipart "file" field. On failure it has already
// written the response.
func formFile(ctx *gin.Context) (service.Upload, func(), bool) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "body_too_large", "File is too large.", nil)
			return service.Upload{}, nil, false
		}
		RespondBadRequest(ctx, "A file is required.", map[string]string{"file": "required"})
		return service.Upload{}, nil, false
	}

	f, err := fh.Open()
	if err != nil {
		RespondBadRequest(ctx, "Could not read the uploaded file.", nil)
		return service.Upload{}, nil, false
	}

	return service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, true
}
